package vulkan

// Fence is a CPU-waitable completion signal. It remembers whether it was
// last observed signaled so waiting twice does not reach the device.
type Fence struct {
	dev      Device
	Handle   Handle
	signaled bool
}

// NewFence creates a fence. A pre-signaled fence lets the very first wait
// return immediately.
func NewFence(dev Device, signaled bool) (*Fence, error) {
	h, res := dev.CreateFence(signaled)
	if res != Success {
		return nil, resultError("create fence", res)
	}
	return &Fence{dev: dev, Handle: h, signaled: signaled}, nil
}

// Signaled reports whether the fence was signaled when last observed.
func (f *Fence) Signaled() bool { return f.signaled }

// Wait blocks until the fence is signaled or timeout nanoseconds pass.
// A timeout is an error matching ErrTimeout.
func (f *Fence) Wait(timeout uint64) error {
	if f.signaled {
		return nil
	}
	res := f.dev.WaitForFence(f.Handle, timeout)
	if res != Success {
		return resultError("wait for fence", res)
	}
	f.signaled = true
	return nil
}

// Reset returns the fence to the unsignaled state. It must follow a
// successful Wait and precede the submission that will signal it again.
func (f *Fence) Reset() error {
	if !f.signaled {
		return nil
	}
	if res := f.dev.ResetFence(f.Handle); res != Success {
		return resultError("reset fence", res)
	}
	f.signaled = false
	return nil
}

func (f *Fence) Destroy() {
	if f.Handle != NullHandle {
		f.dev.DestroyFence(f.Handle)
	}
	f.Handle = NullHandle
	f.signaled = false
}

// Semaphore orders queue operations on the GPU. It has no CPU-side wait.
type Semaphore struct {
	dev    Device
	Handle Handle
}

func NewSemaphore(dev Device) (*Semaphore, error) {
	h, res := dev.CreateSemaphore()
	if res != Success {
		return nil, resultError("create semaphore", res)
	}
	return &Semaphore{dev: dev, Handle: h}, nil
}

func (s *Semaphore) Destroy() {
	if s.Handle != NullHandle {
		s.dev.DestroySemaphore(s.Handle)
	}
	s.Handle = NullHandle
}
