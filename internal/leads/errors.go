package leads

import "errors"

var (
	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrMissingOrgID is returned when a lead has no org scope
	ErrMissingOrgID = errors.New("org_id is required")

	// ErrMissingSource is returned when a lead has no source
	ErrMissingSource = errors.New("source is required")

	// ErrDuplicateExternalID is returned when (org, source, external_id) already exists
	ErrDuplicateExternalID = errors.New("lead already exists for external id")

	// ErrScoreOutOfRange is returned when an urgency score falls outside 0..100
	ErrScoreOutOfRange = errors.New("urgency score must be between 0 and 100")
)
