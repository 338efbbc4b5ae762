// Package common holds the sentinel errors shared by every layer of the
// service. Callers match them with errors.Is; concrete failures wrap them
// with fmt.Errorf("...: %w", err).
package common

import "errors"

var (
	// ErrValidation marks bad or missing client input (answered with 400).
	ErrValidation = errors.New("validation error")

	// ErrUnauthenticated marks a missing, invalid or expired credential, or a
	// credential that references an account which no longer exists (401).
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("not found")

	// ErrUpstream marks a storage or database failure during a request (500).
	ErrUpstream = errors.New("upstream failure")

	// ErrConnection marks the startup-time database connectivity failure.
	ErrConnection = errors.New("database connection failed")
)
