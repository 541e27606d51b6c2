// Package service implements bearer token validation.
package service

import "time"

// TokenValidator checks a raw bearer token at the time the request started.
// Errors are vault service errors carrying requestID.
type TokenValidator interface {
	Validate(token string, now time.Time, requestID string) error
}
