package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

// Resolver finds or creates the lead for an inbound delivery.
type Resolver struct {
	repo   Repository
	logger *logging.Logger
}

// NewResolver wires a resolver onto a lead repository.
func NewResolver(repo Repository, logger *logging.Logger) *Resolver {
	if repo == nil {
		panic("leads: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{repo: repo, logger: logger}
}

// Resolve looks up (org, source, external id) and updates the hit in place,
// or inserts a new lead. Without an external id every call inserts.
func (r *Resolver) Resolve(ctx context.Context, in ResolveInput) (*Lead, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in.ExternalID = strings.TrimSpace(in.ExternalID)

	if in.ExternalID != "" {
		existing, err := r.repo.FindByExternalID(ctx, in.OrgID, in.Source, in.ExternalID)
		switch {
		case err == nil:
			return r.update(ctx, existing.ID, in)
		case !errors.Is(err, ErrLeadNotFound):
			return nil, fmt.Errorf("leads: lookup by external id: %w", err)
		}
	}

	created, err := r.repo.Create(ctx, &Lead{
		OrgID:      in.OrgID,
		ClientID:   in.ClientID,
		Source:     in.Source,
		ExternalID: in.ExternalID,
		Subject:    in.Subject,
		RawText:    in.RawText,
	})
	if errors.Is(err, ErrDuplicateExternalID) {
		// Another delivery of the same external id inserted first.
		existing, lookupErr := r.repo.FindByExternalID(ctx, in.OrgID, in.Source, in.ExternalID)
		if lookupErr != nil {
			return nil, fmt.Errorf("leads: lookup after duplicate: %w", lookupErr)
		}
		return r.update(ctx, existing.ID, in)
	}
	if err != nil {
		return nil, fmt.Errorf("leads: create: %w", err)
	}

	r.logger.Info("lead created", "lead_id", created.ID, "org_id", created.OrgID, "source", created.Source)
	return created, nil
}

func (r *Resolver) update(ctx context.Context, id string, in ResolveInput) (*Lead, error) {
	updated, err := r.repo.UpdateContent(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("leads: update existing: %w", err)
	}
	r.logger.Info("lead re-delivered", "lead_id", id, "org_id", in.OrgID, "external_id", in.ExternalID)
	return updated, nil
}
