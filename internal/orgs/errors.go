package orgs

import "errors"

var (
	// ErrOrgNotFound is returned when no organization matches
	ErrOrgNotFound = errors.New("organization not found")

	// ErrInvalidName is returned when the organization name is blank
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidSlug is returned when no usable slug can be derived
	ErrInvalidSlug = errors.New("slug must contain letters or digits")

	// ErrSlugTaken is returned when the slug already belongs to another organization
	ErrSlugTaken = errors.New("slug already in use")
)
