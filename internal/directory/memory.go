// Package directory is the in-memory implementation of the Directory port,
// used for development and tests. Production deployments put the real user
// and message store behind the same interface.
package directory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/chirp-im/chirp/internal/core"
	"github.com/chirp-im/chirp/internal/domain"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type InMemory struct {
	mu       sync.RWMutex
	byEmail  map[string]*domain.User
	byID     map[domain.UserID]*domain.User
	messages []domain.MessageRecord
}

var _ core.Directory = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{
		byEmail: make(map[string]*domain.User),
		byID:    make(map[domain.UserID]*domain.User),
	}
}

func (d *InMemory) FindUser(_ context.Context, email string) (*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (d *InMemory) CreateUser(_ context.Context, email, name, about, avatarURL string) (*domain.User, error) {
	u, err := domain.NewUser(email, name, about, avatarURL)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byEmail[email]; ok {
		return nil, ErrEmailTaken
	}
	d.byEmail[email] = u
	d.byID[u.ID] = u
	cp := *u
	return &cp, nil
}

// ListUsersByInitial groups users by the upper-cased first letter of their
// name, each group sorted by name, the shape the contacts screen wants.
func (d *InMemory) ListUsersByInitial(_ context.Context) (map[string][]domain.User, error) {
	d.mu.RLock()
	users := lo.Map(lo.Values(d.byID), func(u *domain.User, _ int) domain.User { return *u })
	d.mu.RUnlock()

	grouped := lo.GroupBy(users, func(u domain.User) string {
		return strings.ToUpper(u.Name[:1])
	})
	for _, group := range grouped {
		sort.Slice(group, func(i, j int) bool { return group[i].Name < group[j].Name })
	}
	return grouped, nil
}

func (d *InMemory) PersistMessage(_ context.Context, env domain.MessageEnvelope, delivered bool) (domain.MessageRecord, error) {
	status := domain.StatusSent
	if delivered {
		status = domain.StatusDelivered
	}
	rec := domain.MessageRecord{
		ID:         uuid.NewString(),
		SenderID:   env.From,
		ReceiverID: env.To,
		Payload:    env.Payload,
		Status:     status,
		SentAt:     time.Now(),
	}
	d.mu.Lock()
	d.messages = append(d.messages, rec)
	d.mu.Unlock()
	return rec, nil
}

func (d *InMemory) MarkRead(_ context.Context, from, to domain.UserID) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	changed := 0
	for i := range d.messages {
		m := &d.messages[i]
		if m.SenderID == from && m.ReceiverID == to && m.Status != domain.StatusRead {
			m.Status = domain.StatusRead
			changed++
		}
	}
	return changed, nil
}

// Messages returns a copy of the conversation between two users, oldest
// first.
func (d *InMemory) Messages(from, to domain.UserID) []domain.MessageRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := lo.Filter(d.messages, func(m domain.MessageRecord, _ int) bool {
		return (m.SenderID == from && m.ReceiverID == to) || (m.SenderID == to && m.ReceiverID == from)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out
}
