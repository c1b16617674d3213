package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	GetByID(ctx context.Context, id string) (*Lead, error)
	FindByExternalID(ctx context.Context, orgID, source, externalID string) (*Lead, error)
	Create(ctx context.Context, lead *Lead) (*Lead, error)
	UpdateContent(ctx context.Context, id string, in ResolveInput) (*Lead, error)
	UpdateClassification(ctx context.Context, id string, c Classification) error
	LinkClient(ctx context.Context, id, clientID string) error
	ListByOrg(ctx context.Context, orgID string, filter ListFilter) ([]*Lead, error)
	Stats(ctx context.Context, orgID string, since time.Time) (*Stats, error)
}

// InMemoryRepository is a map-backed Repository for tests and local runs.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
	}
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return clone(lead), nil
}

func (r *InMemoryRepository) FindByExternalID(ctx context.Context, orgID, source, externalID string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if l := r.findLocked(orgID, source, externalID); l != nil {
		return clone(l), nil
	}
	return nil, ErrLeadNotFound
}

func (r *InMemoryRepository) findLocked(orgID, source, externalID string) *Lead {
	if externalID == "" {
		return nil
	}
	for _, l := range r.leads {
		if l.OrgID == orgID && l.Source == source && l.ExternalID == externalID {
			return l
		}
	}
	return nil
}

func (r *InMemoryRepository) Create(ctx context.Context, lead *Lead) (*Lead, error) {
	if lead.OrgID == "" {
		return nil, ErrMissingOrgID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findLocked(lead.OrgID, lead.Source, lead.ExternalID) != nil {
		return nil, ErrDuplicateExternalID
	}

	row := clone(lead)
	row.ID = uuid.New().String()
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	if row.UrgencyReasons == nil {
		row.UrgencyReasons = []string{}
	}
	r.leads[row.ID] = row
	return clone(row), nil
}

// UpdateContent overwrites subject and raw text. A blank client id keeps the existing link.
func (r *InMemoryRepository) UpdateContent(ctx context.Context, id string, in ResolveInput) (*Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	l.Subject = in.Subject
	l.RawText = in.RawText
	if in.ClientID != "" {
		l.ClientID = in.ClientID
	}
	l.UpdatedAt = time.Now().UTC()
	return clone(l), nil
}

func (r *InMemoryRepository) UpdateClassification(ctx context.Context, id string, c Classification) error {
	if c.UrgencyScore < 0 || c.UrgencyScore > 100 {
		return ErrScoreOutOfRange
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leads[id]
	if !ok {
		return ErrLeadNotFound
	}
	l.Intent = c.Intent
	l.Urgency = c.Urgency
	l.UrgencyScore = c.UrgencyScore
	l.UrgencyReasons = append([]string{}, c.UrgencyReasons...)
	l.Sentiment = c.Sentiment
	l.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) LinkClient(ctx context.Context, id, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leads[id]
	if !ok {
		return ErrLeadNotFound
	}
	l.ClientID = clientID
	l.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) ListByOrg(ctx context.Context, orgID string, filter ListFilter) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := []*Lead{}
	for _, l := range r.leads {
		if l.OrgID != orgID {
			continue
		}
		if filter.Intent != "" && l.Intent != filter.Intent {
			continue
		}
		rows = append(rows, clone(l))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })

	if filter.Offset >= len(rows) {
		return []*Lead{}, nil
	}
	rows = rows[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(rows) {
		rows = rows[:filter.Limit]
	}
	return rows, nil
}

func (r *InMemoryRepository) Stats(ctx context.Context, orgID string, since time.Time) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &Stats{ByIntent: map[string]int{}, ByUrgency: map[string]int{}}
	for _, l := range r.leads {
		if l.OrgID != orgID {
			continue
		}
		stats.Total++
		if !l.CreatedAt.Before(since) {
			stats.Recent++
		}
		if l.Intent != "" {
			stats.ByIntent[l.Intent]++
		}
		if l.Urgency != "" {
			stats.ByUrgency[l.Urgency]++
		}
	}
	return stats, nil
}

func clone(l *Lead) *Lead {
	cp := *l
	cp.UrgencyReasons = append([]string(nil), l.UrgencyReasons...)
	if cp.UrgencyReasons == nil {
		cp.UrgencyReasons = []string{}
	}
	return &cp
}
