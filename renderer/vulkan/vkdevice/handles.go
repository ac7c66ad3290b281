package vkdevice

import (
	rv "github.com/hellhand/koengine/renderer/vulkan"
)

// handles hands out the opaque ids the frame core sees. Ids are unique
// across every table of a device.
type handles struct {
	last rv.Handle
}

func (h *handles) next() rv.Handle {
	h.last++
	return h.last
}

// table maps opaque ids to Vulkan objects of one kind.
type table[T any] struct {
	ids   *handles
	items map[rv.Handle]T
}

func newTable[T any](ids *handles) *table[T] {
	return &table[T]{ids: ids, items: map[rv.Handle]T{}}
}

func (t *table[T]) put(v T) rv.Handle {
	h := t.ids.next()
	t.items[h] = v
	return h
}

// get returns the object for h. The null handle and unknown ids yield the
// zero value, which is VK_NULL_HANDLE for every Vulkan handle type.
func (t *table[T]) get(h rv.Handle) (T, bool) {
	v, ok := t.items[h]
	return v, ok
}

func (t *table[T]) take(h rv.Handle) (T, bool) {
	v, ok := t.items[h]
	if ok {
		delete(t.items, h)
	}
	return v, ok
}

func (t *table[T]) len() int { return len(t.items) }
