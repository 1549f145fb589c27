package queue

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(b byte) uuid.UUID {
	var u uuid.UUID
	u[15] = b
	return u
}

func TestBestK(t *testing.T) {
	t.Run("KeepsKBest", func(t *testing.T) {
		b := NewBestK(2)
		b.Push(Candidate{ID: id(1), Distance: 3})
		b.Push(Candidate{ID: id(2), Distance: 1})
		b.Push(Candidate{ID: id(3), Distance: 2})

		got := b.Sorted()
		require.Len(t, got, 2)
		assert.Equal(t, id(2), got[0].ID)
		assert.Equal(t, id(3), got[1].ID)
	})

	t.Run("AscendingOrder", func(t *testing.T) {
		b := NewBestK(5)
		for _, d := range []float32{4, 1, 3, 5, 2} {
			b.Push(Candidate{ID: id(byte(d)), Distance: d})
		}

		got := b.Sorted()
		require.Len(t, got, 5)
		for i := 1; i < len(got); i++ {
			assert.LessOrEqual(t, got[i-1].Distance, got[i].Distance)
		}
	})

	t.Run("TieBrokenByID", func(t *testing.T) {
		b := NewBestK(2)
		b.Push(Candidate{ID: id(9), Distance: 1})
		b.Push(Candidate{ID: id(3), Distance: 1})
		b.Push(Candidate{ID: id(7), Distance: 1})

		got := b.Sorted()
		require.Len(t, got, 2)
		// The two smallest ids at equal distance survive, ascending.
		assert.Equal(t, id(3), got[0].ID)
		assert.Equal(t, id(7), got[1].ID)
	})

	t.Run("ZeroK", func(t *testing.T) {
		b := NewBestK(0)
		b.Push(Candidate{ID: id(1), Distance: 1})
		assert.Equal(t, 0, b.Len())
		assert.Empty(t, b.Sorted())
	})

	t.Run("WouldAccept", func(t *testing.T) {
		b := NewBestK(1)
		assert.True(t, b.WouldAccept(Candidate{ID: id(1), Distance: 10}))

		b.Push(Candidate{ID: id(1), Distance: 10})
		assert.True(t, b.WouldAccept(Candidate{ID: id(2), Distance: 5}))
		assert.False(t, b.WouldAccept(Candidate{ID: id(2), Distance: 11}))

		// Equal distance: a smaller id displaces, a larger one does not.
		assert.True(t, b.WouldAccept(Candidate{ID: id(0), Distance: 10}))
		assert.False(t, b.WouldAccept(Candidate{ID: id(2), Distance: 10}))
	})

	t.Run("WorstTracksEvictions", func(t *testing.T) {
		b := NewBestK(2)
		b.Push(Candidate{ID: id(1), Distance: 5})
		b.Push(Candidate{ID: id(2), Distance: 9})

		w, ok := b.Worst()
		require.True(t, ok)
		assert.Equal(t, float32(9), w.Distance)

		b.Push(Candidate{ID: id(3), Distance: 1})
		w, ok = b.Worst()
		require.True(t, ok)
		assert.Equal(t, float32(5), w.Distance)
	})
}
