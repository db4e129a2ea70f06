package execution

import (
	"sync/atomic"
)

// Counter is the execution counter of a kernel. It starts at 0, so the first allocated value is 1.
type Counter struct {
	value atomic.Int64
}

// Next allocates the next value.
func (c *Counter) Next() int {
	return int(c.value.Add(1))
}

// Current returns the last allocated value without allocating.
func (c *Counter) Current() int {
	return int(c.value.Load())
}
