package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/activity-tracker/internal/model"
	"github.com/iliyamo/activity-tracker/internal/queue"
	"github.com/iliyamo/activity-tracker/internal/repository"
)

// memActivities is an in-memory ActivityStore with the same ownership
// rules as the MySQL repository.
type memActivities struct {
	mu   sync.Mutex
	next uint64
	rows map[uint64]model.Activity
	err  error
}

func newMemActivities() *memActivities {
	return &memActivities{rows: map[uint64]model.Activity{}}
}

func numberPoints(id uint64, pts []model.RoutePoint) []model.RoutePoint {
	out := make([]model.RoutePoint, len(pts))
	for i, p := range pts {
		p.ID = id*1000 + uint64(i) + 1
		p.ActivityID = id
		p.OrderIndex = i
		out[i] = p
	}
	return out
}

func (m *memActivities) Create(_ context.Context, a *model.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.next++
	a.ID = m.next
	a.CreatedAt = time.Now().UTC()
	a.RoutePoints = numberPoints(a.ID, a.RoutePoints)
	m.rows[a.ID] = *a
	return nil
}

func (m *memActivities) GetByIDAndOwner(_ context.Context, id, userID uint64) (*model.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.rows[id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (m *memActivities) ListByOwner(_ context.Context, userID uint64, f repository.ActivityFilter) ([]model.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []model.Activity{}
	for _, a := range m.rows {
		if a.UserID != userID {
			continue
		}
		if f.Year > 0 && a.Date.Year() != f.Year {
			continue
		}
		if f.Month > 0 && int(a.Date.Month()) != f.Month {
			continue
		}
		if f.Type != "" && a.ActivityType != f.Type {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID > out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	if f.Skip > len(out) {
		return []model.Activity{}, nil
	}
	out = out[f.Skip:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memActivities) UpdateByIDAndOwner(_ context.Context, id, userID uint64, p repository.ActivityPatch) (*model.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.rows[id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.Distance != nil {
		a.Distance = *p.Distance
	}
	if p.Pace != nil {
		a.Pace = p.Pace
	}
	if p.BPM != nil {
		a.BPM = p.BPM
	}
	if p.Time != nil {
		a.Time = p.Time
	}
	if p.Route != nil {
		a.Route = p.Route
	}
	if p.ClearPace {
		a.Pace = nil
	}
	if p.ClearBPM {
		a.BPM = nil
	}
	if p.ClearTime {
		a.Time = nil
	}
	if p.ClearRoute {
		a.Route = nil
	}
	if p.ActivityType != nil {
		a.ActivityType = *p.ActivityType
	}
	if p.RoutePoints != nil {
		a.RoutePoints = numberPoints(id, *p.RoutePoints)
	}
	now := time.Now().UTC()
	a.UpdatedAt = &now
	m.rows[id] = a
	return &a, nil
}

func (m *memActivities) DeleteByIDAndOwner(_ context.Context, id, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	a, ok := m.rows[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ActivityEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingCache struct {
	mu    sync.Mutex
	users []uint64
}

func (c *recordingCache) InvalidateUser(_ context.Context, userID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = append(c.users, userID)
	return nil
}

// memUsers is an in-memory UserStore enforcing unique email and username.
type memUsers struct {
	mu   sync.Mutex
	next uint64
	rows map[string]*model.User
}

func newMemUsers() *memUsers { return &memUsers{rows: map[string]*model.User{}} }

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
		if existing.Username == u.Username {
			return repository.ErrUsernameExists
		}
	}
	m.next++
	u.ID = m.next
	u.CreatedAt = time.Now().UTC()
	cp := *u
	m.rows[u.Username] = &cp
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
