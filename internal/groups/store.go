package groups

import (
	"sync"
	"time"

	"changrep/internal/model"
)

// Store keeps saved groups per user, in memory only. Nothing here survives a
// restart and no group is ever visible to another user.
type Store struct {
	mu    sync.RWMutex
	users map[string]*userGroups
	now   func() time.Time
}

// userGroups tracks one user's groups. order preserves first-save order so
// List output is stable across overwrites.
type userGroups struct {
	order  []string
	byName map[string]model.SavedGroup
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]*userGroups),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Save stores a group under the user, overwriting any existing group with
// the same name. An overwrite keeps the group's position in List output but
// refreshes CreatedAt.
func (s *Store) Save(userID, name, pattern, flags string) model.SavedGroup {
	s.mu.Lock()
	defer s.mu.Unlock()

	ug := s.users[userID]
	if ug == nil {
		ug = &userGroups{byName: make(map[string]model.SavedGroup)}
		s.users[userID] = ug
	}
	if _, exists := ug.byName[name]; !exists {
		ug.order = append(ug.order, name)
	}
	g := model.SavedGroup{
		Name:      name,
		Pattern:   pattern,
		Flags:     flags,
		CreatedAt: s.now(),
	}
	ug.byName[name] = g
	return g
}

// Get returns the named group for the user.
func (s *Store) Get(userID, name string) (model.SavedGroup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ug := s.users[userID]
	if ug == nil {
		return model.SavedGroup{}, false
	}
	g, ok := ug.byName[name]
	return g, ok
}

// List returns the user's groups in first-save order. Users with no groups
// get an empty, non-nil slice.
func (s *Store) List(userID string) []model.SavedGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ug := s.users[userID]
	if ug == nil {
		return []model.SavedGroup{}
	}
	out := make([]model.SavedGroup, 0, len(ug.order))
	for _, name := range ug.order {
		out = append(out, ug.byName[name])
	}
	return out
}

// Delete removes the named group and reports whether it existed. Deleting a
// user's last group drops the per-user container as well.
func (s *Store) Delete(userID, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ug := s.users[userID]
	if ug == nil {
		return false
	}
	if _, ok := ug.byName[name]; !ok {
		return false
	}
	delete(ug.byName, name)
	for i, n := range ug.order {
		if n == name {
			ug.order = append(ug.order[:i], ug.order[i+1:]...)
			break
		}
	}
	if len(ug.byName) == 0 {
		delete(s.users, userID)
	}
	return true
}

// Counts reports how many users currently hold groups and the total group
// count across all users. Used by gauges and the maintenance sweep.
func (s *Store) Counts() (users, total int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ug := range s.users {
		total += len(ug.byName)
	}
	return len(s.users), total
}
