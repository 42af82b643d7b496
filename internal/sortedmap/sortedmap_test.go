package sortedmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ascendingInt(a, b int) int { return a - b }

func TestInsertGetDelete(t *testing.T) {
	m := New[int, string](ascendingInt)

	assert.True(t, m.Insert(3, "three"))
	assert.True(t, m.Insert(1, "one"))
	assert.False(t, m.Insert(1, "uno")) // overwrite, not a new key
	assert.Equal(t, 2, m.Len())

	v, ok := m.Get(1)
	require.True(t, ok)
	assert.Equal(t, "uno", v)

	assert.True(t, m.Delete(3))
	assert.False(t, m.Delete(3))
	assert.Equal(t, 1, m.Len())
}

func TestFirstLastNth(t *testing.T) {
	m := New[int, int](ascendingInt)
	for _, k := range []int{5, 1, 4, 2, 3} {
		m.Insert(k, k*10)
	}

	k, v, ok := m.First()
	require.True(t, ok)
	assert.Equal(t, 1, k)
	assert.Equal(t, 10, v)

	k, v, ok = m.Last()
	require.True(t, ok)
	assert.Equal(t, 5, k)
	assert.Equal(t, 50, v)

	k, v, ok = m.Nth(2)
	require.True(t, ok)
	assert.Equal(t, 3, k)
	assert.Equal(t, 30, v)
}

func TestRankOf(t *testing.T) {
	m := New[int, int](ascendingInt)
	for _, k := range []int{10, 20, 30, 40} {
		m.Insert(k, k)
	}
	rank, ok := m.RankOf(30)
	require.True(t, ok)
	assert.Equal(t, 2, rank)

	_, ok = m.RankOf(99)
	assert.False(t, ok)
}

func TestAllIsAscending(t *testing.T) {
	m := New[int, int](ascendingInt)
	for _, k := range []int{9, 4, 7, 1, 2} {
		m.Insert(k, k)
	}
	entries := m.All()
	require.Len(t, entries, 5)
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Key, entries[i].Key)
	}
}

func TestNearest(t *testing.T) {
	m := New[int, int](ascendingInt)
	for _, k := range []int{10, 20, 30} {
		m.Insert(k, k)
	}

	k, _, ok := m.Nearest(LE, 25)
	require.True(t, ok)
	assert.Equal(t, 20, k)

	k, _, ok = m.Nearest(GE, 25)
	require.True(t, ok)
	assert.Equal(t, 30, k)

	k, _, ok = m.Nearest(LT, 20)
	require.True(t, ok)
	assert.Equal(t, 10, k)

	_, _, ok = m.Nearest(GT, 30)
	assert.False(t, ok)
}

func TestSubrange(t *testing.T) {
	m := New[int, int](ascendingInt)
	for i := 1; i <= 10; i++ {
		m.Insert(i, i)
	}
	entries := m.Subrange(3, GE, 7, LE)
	require.Len(t, entries, 5)
	assert.Equal(t, 3, entries[0].Key)
	assert.Equal(t, 7, entries[len(entries)-1].Key)
}

func TestTailAndTailUntil(t *testing.T) {
	m := New[int, int](ascendingInt)
	for i := 1; i <= 5; i++ {
		m.Insert(i, i)
	}

	tail := m.Tail(3)
	require.Len(t, tail, 3)
	assert.Equal(t, []int{3, 4, 5}, []int{tail[0].Key, tail[1].Key, tail[2].Key})

	assert.Len(t, m.Tail(100), 5)
	assert.Nil(t, m.Tail(0))

	untilThree := m.TailUntil(3, 5)
	assert.Equal(t, []int{4, 5}, []int{untilThree[0].Key, untilThree[1].Key})
}

func TestDescendingComparator(t *testing.T) {
	m := New[int, int](func(a, b int) int { return b - a })
	for _, k := range []int{1, 2, 3} {
		m.Insert(k, k)
	}
	k, _, ok := m.First()
	require.True(t, ok)
	assert.Equal(t, 3, k)
}
