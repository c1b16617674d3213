package drafts

import "errors"

var (
	// ErrEmptyGeneration is returned when the model produced no usable text
	ErrEmptyGeneration = errors.New("empty generation")

	// ErrMissingLead is returned when a draft has no lead reference
	ErrMissingLead = errors.New("lead_id is required")
)
