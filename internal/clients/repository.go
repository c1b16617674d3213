package clients

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for client storage
type Repository interface {
	GetByID(ctx context.Context, id string) (*Client, error)
	FindByEmail(ctx context.Context, orgID, email string) (*Client, error)
	FindByPhone(ctx context.Context, orgID, phone string) (*Client, error)
	Create(ctx context.Context, client *Client) (*Client, error)
	ListByOrg(ctx context.Context, orgID string, filter ListFilter) ([]*Client, error)
	CountByOrg(ctx context.Context, orgID string) (int, error)
}

// InMemoryRepository keeps clients in a map and enforces the same (org, email)
// uniqueness as the Postgres schema.
type InMemoryRepository struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		clients: make(map[string]*Client),
	}
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *InMemoryRepository) FindByEmail(ctx context.Context, orgID, email string) (*Client, error) {
	return r.find(func(c *Client) bool { return c.OrgID == orgID && c.Email != "" && c.Email == email })
}

func (r *InMemoryRepository) FindByPhone(ctx context.Context, orgID, phone string) (*Client, error) {
	return r.find(func(c *Client) bool { return c.OrgID == orgID && c.Phone != "" && c.Phone == phone })
}

func (r *InMemoryRepository) find(match func(*Client) bool) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *Client
	for _, c := range r.clients {
		if match(c) && (found == nil || c.CreatedAt.Before(found.CreatedAt)) {
			found = c
		}
	}
	if found == nil {
		return nil, ErrClientNotFound
	}
	cp := *found
	return &cp, nil
}

func (r *InMemoryRepository) Create(ctx context.Context, client *Client) (*Client, error) {
	if client.OrgID == "" {
		return nil, ErrMissingOrgID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if client.Email != "" {
		for _, existing := range r.clients {
			if existing.OrgID == client.OrgID && existing.Email == client.Email {
				return nil, ErrDuplicateClient
			}
		}
	}

	row := *client
	row.ID = uuid.New().String()
	row.CreatedAt = time.Now().UTC()
	r.clients[row.ID] = &row

	out := row
	return &out, nil
}

func (r *InMemoryRepository) ListByOrg(ctx context.Context, orgID string, filter ListFilter) ([]*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []*Client
	for _, c := range r.clients {
		if c.OrgID == orgID {
			cp := *c
			rows = append(rows, &cp)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	return page(rows, filter), nil
}

func (r *InMemoryRepository) CountByOrg(ctx context.Context, orgID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, c := range r.clients {
		if c.OrgID == orgID {
			n++
		}
	}
	return n, nil
}

func page(rows []*Client, filter ListFilter) []*Client {
	if filter.Offset >= len(rows) {
		return []*Client{}
	}
	rows = rows[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(rows) {
		rows = rows[:filter.Limit]
	}
	return rows
}
