package idx

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_SortableAndUnique(t *testing.T) {
	prev := New()
	for range 100 {
		id := New()
		require.Greater(t, id.String(), prev.String())
		prev = id
	}
}

func TestNewAt_EmbedsTime(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	id := NewAt(at)
	require.Equal(t, at.UnixMilli(), id.Time().UnixMilli())
}

func TestParse(t *testing.T) {
	valid := New().String()

	got, err := Parse(valid)
	require.NoError(t, err)
	require.Equal(t, valid, got.String())

	for _, s := range []string{"", "  ", "not-a-ulid", "0123456789"} {
		_, err := Parse(s)
		require.ErrorIs(t, err, ErrInvalid, "input %q", s)
	}
}

func TestMustParse_Panics(t *testing.T) {
	require.Panics(t, func() { MustParse("nope") })
}

func TestIsZero(t *testing.T) {
	require.True(t, Zero.IsZero())
	require.False(t, New().IsZero())
	require.True(t, Zero.Time().IsZero())
}

func TestNew_Concurrent(t *testing.T) {
	const n = 50
	ids := make([]ID, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids[i] = New()
		}()
	}
	wg.Wait()

	seen := map[ID]bool{}
	for _, id := range ids {
		require.False(t, seen[id])
		seen[id] = true
	}
}
