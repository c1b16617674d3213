package drafts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository stores drafts. Drafts are append-only.
type Repository interface {
	Create(ctx context.Context, draft *Draft) (*Draft, error)
	ListByLead(ctx context.Context, orgID, leadID string, filter ListFilter) ([]*Draft, error)
}

// InMemoryRepository is a slice-backed Repository.
type InMemoryRepository struct {
	mu     sync.RWMutex
	drafts []*Draft
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

func (r *InMemoryRepository) Create(ctx context.Context, draft *Draft) (*Draft, error) {
	if draft.LeadID == "" {
		return nil, ErrMissingLead
	}
	row := *draft
	row.ID = uuid.New().String()
	row.CreatedAt = time.Now().UTC()
	if row.Type == "" {
		row.Type = TypeReply
	}

	r.mu.Lock()
	r.drafts = append(r.drafts, &row)
	r.mu.Unlock()

	out := row
	return &out, nil
}

// ListByLead returns the lead's drafts, newest first.
func (r *InMemoryRepository) ListByLead(ctx context.Context, orgID, leadID string, filter ListFilter) ([]*Draft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := []*Draft{}
	for i := len(r.drafts) - 1; i >= 0; i-- {
		d := r.drafts[i]
		if d.OrgID == orgID && d.LeadID == leadID {
			cp := *d
			rows = append(rows, &cp)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })

	if filter.Offset >= len(rows) {
		return []*Draft{}, nil
	}
	rows = rows[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(rows) {
		rows = rows[:filter.Limit]
	}
	return rows, nil
}
