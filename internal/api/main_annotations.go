// @title           bookshelf API
// @version         1.0
// @description     CRUD REST API for a catalogue of books. Every response except 204 is wrapped in a {success, message, data} envelope.
// @BasePath        /api
package api
