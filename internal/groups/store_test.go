package groups

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndGet(t *testing.T) {
	s := NewStore()

	g := s.Save("U1", "eng", "^eng-", "i")
	assert.Equal(t, "eng", g.Name)
	assert.Equal(t, "^eng-", g.Pattern)
	assert.Equal(t, "i", g.Flags)
	assert.False(t, g.CreatedAt.IsZero())

	got, ok := s.Get("U1", "eng")
	require.True(t, ok)
	assert.Equal(t, g, got)
}

func TestGetIsScopedToUser(t *testing.T) {
	s := NewStore()
	s.Save("U1", "eng", "^eng-", "i")

	_, ok := s.Get("U2", "eng")
	assert.False(t, ok)
}

func TestSaveOverwriteKeepsPosition(t *testing.T) {
	s := NewStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	s.Save("U1", "eng", "^eng-", "i")
	s.Save("U1", "proj", "^proj-", "i")
	s.Save("U1", "eng", "^(eng|dev)-", "i")

	list := s.List("U1")
	require.Len(t, list, 2)
	assert.Equal(t, "eng", list[0].Name)
	assert.Equal(t, "^(eng|dev)-", list[0].Pattern)
	assert.Equal(t, "proj", list[1].Name)
	// Overwrite refreshes the timestamp.
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))
}

func TestListEmptyUserReturnsEmptySlice(t *testing.T) {
	s := NewStore()
	list := s.List("nobody")
	require.NotNil(t, list)
	assert.Empty(t, list)
}

func TestDelete(t *testing.T) {
	s := NewStore()
	s.Save("U1", "eng", "^eng-", "i")
	s.Save("U1", "proj", "^proj-", "i")

	assert.True(t, s.Delete("U1", "eng"))
	assert.False(t, s.Delete("U1", "eng"), "second delete of same name")
	assert.False(t, s.Delete("U1", "missing"))
	assert.False(t, s.Delete("ghost", "eng"))

	list := s.List("U1")
	require.Len(t, list, 1)
	assert.Equal(t, "proj", list[0].Name)
}

func TestDeleteLastGroupDropsUserContainer(t *testing.T) {
	s := NewStore()
	s.Save("U1", "eng", "^eng-", "i")
	s.Save("U2", "proj", "^proj-", "i")

	users, total := s.Counts()
	assert.Equal(t, 2, users)
	assert.Equal(t, 2, total)

	require.True(t, s.Delete("U1", "eng"))

	users, total = s.Counts()
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, total)

	s.mu.RLock()
	_, present := s.users["U1"]
	s.mu.RUnlock()
	assert.False(t, present, "empty container should be dropped")
}

func TestConcurrentSaveListDelete(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("U%d", i%4)
			for j := 0; j < 50; j++ {
				name := fmt.Sprintf("g%d", j%5)
				s.Save(user, name, "^x-", "i")
				s.List(user)
				s.Get(user, name)
				if j%7 == 0 {
					s.Delete(user, name)
				}
			}
		}(i)
	}
	wg.Wait()

	users, total := s.Counts()
	assert.LessOrEqual(t, users, 4)
	assert.LessOrEqual(t, total, 20)
}
