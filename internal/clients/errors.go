package clients

import "errors"

var (
	// ErrClientNotFound is returned when no client matches a lookup
	ErrClientNotFound = errors.New("client not found")

	// ErrDuplicateClient is returned when an insert violates the (org, email) uniqueness constraint
	ErrDuplicateClient = errors.New("client already exists for email")

	// ErrMissingOrgID is returned when a client operation has no org scope
	ErrMissingOrgID = errors.New("org_id is required")
)
