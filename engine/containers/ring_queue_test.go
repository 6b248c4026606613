package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueFIFO(t *testing.T) {
	q := NewRingQueue[int](4)
	assert.True(t, q.IsEmpty())

	for i := 1; i <= 3; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	assert.Equal(t, 3, q.Len())

	front, err := q.Peek()
	require.NoError(t, err)
	assert.Equal(t, 1, front)
	assert.Equal(t, 3, q.Len(), "peek must not consume")

	for i := 1; i <= 3; i++ {
		v, err := q.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.True(t, q.IsEmpty())
}

func TestRingQueueFullAndEmpty(t *testing.T) {
	q := NewRingQueue[string](2)

	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))
	assert.True(t, q.IsFull())
	assert.Error(t, q.Enqueue("c"))

	_, err := q.Dequeue()
	require.NoError(t, err)
	require.NoError(t, q.Enqueue("c"))

	_, _ = q.Dequeue()
	_, _ = q.Dequeue()
	_, err = q.Dequeue()
	assert.Error(t, err)
	_, err = q.Peek()
	assert.Error(t, err)
}

func TestRingQueueWrapsAround(t *testing.T) {
	q := NewRingQueue[int](3)
	for round := 0; round < 5; round++ {
		for i := 0; i < 3; i++ {
			require.NoError(t, q.Enqueue(round*10+i))
		}
		for i := 0; i < 3; i++ {
			v, err := q.Dequeue()
			require.NoError(t, err)
			assert.Equal(t, round*10+i, v)
		}
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(5, 0, 10))
	assert.Equal(t, 0, Clamp(-3, 0, 10))
	assert.Equal(t, 10, Clamp(42, 0, 10))
	assert.Equal(t, 1.5, Clamp(1.5, 1.0, 2.0))
}
