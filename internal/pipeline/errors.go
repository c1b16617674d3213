package pipeline

import (
	"errors"
	"fmt"
)

// ErrValidation marks input rejected before any store or model call.
var ErrValidation = errors.New("invalid inbound message")

var (
	ErrEmptyText     = fmt.Errorf("%w: text is required", ErrValidation)
	ErrMissingOrgID  = fmt.Errorf("%w: org_id is required", ErrValidation)
	ErrInvalidSource = fmt.Errorf("%w: source must be one of email, web, whatsapp, manual", ErrValidation)
)
