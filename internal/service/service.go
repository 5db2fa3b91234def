// Package service contains the business logic.
//
// It sits behind the handler layer: it receives validated data
// from the handler and performs the business operations.
package service
