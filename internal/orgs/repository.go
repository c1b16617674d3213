package orgs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for organization storage
type Repository interface {
	GetByID(ctx context.Context, id string) (*Organization, error)
	// First returns the oldest organization, used when a message names none.
	First(ctx context.Context) (*Organization, error)
	Create(ctx context.Context, req *CreateRequest) (*Organization, error)
}

// InMemoryRepository keeps organizations in insertion order.
type InMemoryRepository struct {
	mu   sync.RWMutex
	orgs []*Organization
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orgs {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrOrgNotFound
}

func (r *InMemoryRepository) First(ctx context.Context) (*Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.orgs) == 0 {
		return nil, ErrOrgNotFound
	}
	cp := *r.orgs[0]
	return &cp, nil
}

func (r *InMemoryRepository) Create(ctx context.Context, req *CreateRequest) (*Organization, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.orgs {
		if o.Slug == req.Slug {
			return nil, ErrSlugTaken
		}
	}
	org := &Organization{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Slug:      req.Slug,
		CreatedAt: time.Now().UTC(),
	}
	r.orgs = append(r.orgs, org)
	cp := *org
	return &cp, nil
}
