package darray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushDoublesCapacity(t *testing.T) {
	a := New[int]()
	assert.Equal(t, DefaultCapacity, a.Cap())

	caps := []int{}
	for i := 0; i < 9; i++ {
		a.Push(i)
		caps = append(caps, a.Cap())
	}
	assert.Equal(t, []int{1, 2, 4, 4, 8, 8, 8, 8, 16}, caps)
	assert.Equal(t, 9, a.Len())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, a.Slice())
}

func TestPop(t *testing.T) {
	var a Array[string]
	_, ok := a.Pop()
	assert.False(t, ok)

	a.Push("a")
	a.Push("b")
	v, ok := a.Pop()
	assert.True(t, ok)
	assert.Equal(t, "b", v)
	assert.Equal(t, 1, a.Len())
}

func TestInsertAt(t *testing.T) {
	a := Reserve[int](2)
	a.Push(1)
	a.Push(3)

	require.NoError(t, a.InsertAt(1, 2))
	require.NoError(t, a.InsertAt(0, 0))
	require.NoError(t, a.InsertAt(a.Len(), 4))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, a.Slice())
	assert.Equal(t, 8, a.Cap())

	err := a.InsertAt(7, 9)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	err = a.InsertAt(-1, 9)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestPopAt(t *testing.T) {
	a := New[int]()
	for i := 0; i < 5; i++ {
		a.Push(i * 10)
	}

	v, err := a.PopAt(2)
	require.NoError(t, err)
	assert.Equal(t, 20, v)
	assert.Equal(t, []int{0, 10, 30, 40}, a.Slice())

	v, err = a.PopAt(0)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	_, err = a.PopAt(3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestAtSetClear(t *testing.T) {
	a := New[int]()
	a.Push(7)
	require.NoError(t, a.Set(0, 8))
	v, err := a.At(0)
	require.NoError(t, err)
	assert.Equal(t, 8, v)

	_, err = a.At(1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.ErrorIs(t, a.Set(5, 1), ErrIndexOutOfRange)

	c := a.Cap()
	a.Clear()
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, c, a.Cap())
}
