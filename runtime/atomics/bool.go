package atomics

import "sync/atomic"

// Bool is an atomic boolean, the zero value is false.
type Bool struct {
	value int32
}

// NewBool returns an atomic boolean initialized to value.
func NewBool(value bool) *Bool {
	b := &Bool{}
	b.Set(value)
	return b
}

// Set the boolean to value.
func (b *Bool) Set(value bool) {
	var v int32
	if value {
		v = 1
	}
	atomic.StoreInt32(&b.value, v)
}

// Get the current value.
func (b *Bool) Get() bool {
	return atomic.LoadInt32(&b.value) != 0
}

// Swap sets the boolean to value and returns the previous value.
func (b *Bool) Swap(value bool) bool {
	var v int32
	if value {
		v = 1
	}
	return atomic.SwapInt32(&b.value, v) != 0
}
