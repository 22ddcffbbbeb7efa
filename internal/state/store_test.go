package state

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type basket struct {
	Items []string
	Count int
}

func cloneBasket(b basket) basket {
	b.Items = slices.Clone(b.Items)
	return b
}

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	s := New(basket{}, cloneBasket)

	before := time.Now()
	got := s.Update(func(b basket) basket {
		b.Items = append(b.Items, "roses", "tulips")
		b.Count = 2
		return b
	})
	assert.Equal(t, 2, got.Count)
	assert.False(t, s.LastUpdated().Before(before))

	snap := s.Snapshot()
	require.Len(t, snap.Items, 2)

	// Returned snapshot should be independent of the stored one.
	snap.Items[0] = "weeds"
	got.Items[1] = "weeds"
	again := s.Snapshot()
	assert.Equal(t, []string{"roses", "tulips"}, again.Items)
}

func TestStore_NilCloneCopiesByValue(t *testing.T) {
	s := New(3, nil)
	s.Update(func(v int) int { return v + 1 })
	assert.Equal(t, 4, s.Snapshot())
}

func TestStore_UpdatesAreAtomic(t *testing.T) {
	s := New(basket{}, cloneBasket)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(func(b basket) basket {
				b.Items = append(b.Items, "stem")
				b.Count = len(b.Items)
				return b
			})
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Len(t, snap.Items, 50)
	assert.Equal(t, 50, snap.Count)
}

func TestStore_SubscribeCoalesces(t *testing.T) {
	s := New(0, nil)
	ch, unsubscribe := s.Subscribe()

	s.Update(func(v int) int { return v + 1 })
	s.Update(func(v int) int { return v + 1 })

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a notification")
	}
	select {
	case <-ch:
		t.Fatal("notifications should coalesce")
	default:
	}

	unsubscribe()
	unsubscribe()
	s.Update(func(v int) int { return v + 1 })
	select {
	case <-ch:
		t.Fatal("unsubscribed channel received a notification")
	default:
	}
}

func TestHealth_ConsecutiveFailures(t *testing.T) {
	var h Health
	assert.False(t, h.Offline())

	now := time.Now()
	h = h.Record(errors.New("fail 1"), now)
	assert.Equal(t, 1, h.ConsecutiveFailures)
	assert.False(t, h.Offline())

	h = h.Record(errors.New("fail 2"), now)
	assert.Equal(t, 2, h.ConsecutiveFailures)
	assert.True(t, h.Offline())
	assert.EqualError(t, h.LastError, "fail 2")

	h = h.Record(errors.New("fail 3"), now)
	assert.True(t, h.Offline())

	later := now.Add(time.Second)
	h = h.Record(nil, later)
	assert.Equal(t, 0, h.ConsecutiveFailures)
	assert.False(t, h.Offline())
	assert.NoError(t, h.LastError)
	assert.Equal(t, later, h.LastCheck)
}
