package teardown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReleaseReverseOrder(t *testing.T) {
	var order []string
	s := New(nil)
	for _, name := range []string{"instance", "surface", "device", "swapchain"} {
		name := name
		s.Push(name, func() { order = append(order, name) })
	}
	assert.Equal(t, 4, s.Len())

	s.Release()
	assert.Equal(t, []string{"swapchain", "device", "surface", "instance"}, order)
	assert.Equal(t, 0, s.Len())

	s.Release()
	assert.Len(t, order, 4)
}
