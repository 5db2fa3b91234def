// Package handler is the first layer. The first entry point
// for business logic after the router.
//
// It parses requests, handles input validation using the
// validation package, and calls the appropriate service layer.
// Handlers never write error responses themselves: they return
// an error and the global error handler renders it.
package handler
