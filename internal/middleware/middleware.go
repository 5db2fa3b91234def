// Package middleware stores global and route-specific middleware.
//
// These intercept requests to handle cross-cutting concerns
// such as request logging, CORS, JSON body parsing, rate limiting,
// panic recovery and the final error normalization.
package middleware
