// Package errs defines the typed error every handler returns
// when it cannot fulfil a request.
//
// The global error handler turns an HTTPError into the uniform
// wire response { "message": ..., "data": ... } so clients always
// receive the same error shape.
package errs
