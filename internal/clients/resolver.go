package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

// Resolver maps a raw contact block onto a deduplicated client.
type Resolver struct {
	repo   Repository
	logger *logging.Logger
}

// NewResolver wires a resolver onto a client repository.
func NewResolver(repo Repository, logger *logging.Logger) *Resolver {
	if repo == nil {
		panic("clients: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{repo: repo, logger: logger}
}

// Resolve finds the client matching the contact's normalized email, then its
// normalized phone, and inserts a new client when neither matches. Existing
// clients are never updated. A blank contact yields ("", nil).
func (r *Resolver) Resolve(ctx context.Context, orgID string, contact Contact) (string, error) {
	if contact.IsEmpty() {
		return "", nil
	}
	if strings.TrimSpace(orgID) == "" {
		return "", ErrMissingOrgID
	}

	email := NormalizeEmail(contact.Email)
	phone := NormalizePhone(contact.Phone)

	if email != "" {
		existing, err := r.repo.FindByEmail(ctx, orgID, email)
		if err == nil {
			return existing.ID, nil
		}
		if !errors.Is(err, ErrClientNotFound) {
			return "", fmt.Errorf("clients: lookup by email: %w", err)
		}
	}
	if phone != "" {
		existing, err := r.repo.FindByPhone(ctx, orgID, phone)
		if err == nil {
			return existing.ID, nil
		}
		if !errors.Is(err, ErrClientNotFound) {
			return "", fmt.Errorf("clients: lookup by phone: %w", err)
		}
	}

	created, err := r.repo.Create(ctx, &Client{
		OrgID:   orgID,
		Name:    strings.TrimSpace(contact.Name),
		Email:   email,
		Phone:   phone,
		Company: strings.TrimSpace(contact.Company),
	})
	if errors.Is(err, ErrDuplicateClient) && email != "" {
		// A concurrent delivery inserted the same email first.
		existing, lookupErr := r.repo.FindByEmail(ctx, orgID, email)
		if lookupErr != nil {
			return "", fmt.Errorf("clients: lookup after duplicate: %w", lookupErr)
		}
		r.logger.Debug("client insert raced, reusing existing", "org_id", orgID, "client_id", existing.ID)
		return existing.ID, nil
	}
	if err != nil {
		return "", fmt.Errorf("clients: create: %w", err)
	}

	r.logger.Info("client created", "org_id", orgID, "client_id", created.ID)
	return created.ID, nil
}
