package worker

import "sync"

// future is the one-shot "Deferred / completion future" primitive
// described in spec.md §9: resolved exactly once, readable any number of
// times afterward. The zero value is not usable; use newFuture.
type future struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newFuture() *future {
	return &future{done: make(chan struct{})}
}

// resolve settles f with err. Only the first call has any effect.
func (f *future) resolve(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// resolveWith resolves f once src settles, with src's error. If src is
// nil, f resolves immediately with a nil error.
func (f *future) resolveWith(src *future) {
	if src == nil {
		f.resolve(nil)
		return
	}
	go func() {
		<-src.done
		f.resolve(src.err)
	}()
}

// Done returns a channel closed once f settles.
func (f *future) Done() <-chan struct{} {
	return f.done
}

// Err returns f's settled error. Only meaningful after Done() is closed.
func (f *future) Err() error {
	return f.err
}
