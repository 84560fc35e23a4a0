package services

import "context"

// flight tracks the one in-flight request of a kind.
// All methods must be called with the owner's mutex held.
type flight struct {
	gen    uint64
	cancel context.CancelFunc
}

// start cancels the previous request and returns a context and generation for a new one
func (f *flight) start(ctx context.Context) (context.Context, uint64) {
	f.abort()
	reqCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	return reqCtx, f.gen
}

// finish reports whether gen is still the current request, releasing it if so
func (f *flight) finish(gen uint64) bool {
	if gen != f.gen {
		return false
	}
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.gen++
	return true
}

// abort cancels the current request and makes its response stale
func (f *flight) abort() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.gen++
}
