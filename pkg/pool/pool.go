package pool

import (
	"errors"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrExhausted is returned by Search when the attempt budget runs out
// before enough successes were found.
var ErrExhausted = errors.New("pool: search exhausted its attempts")

// Pool represents a pool of workers, used for parallelizing functions.
//
// Functions needing a *Pool will work with a nil receiver, doing the equivalent
// work on the current goroutine instead.
//
// By creating a pool, you avoid the overhead of spinning up goroutines for
// each new operation.
type Pool struct {
	// tasks is shared by all workers, which makes this a work stealing pool.
	tasks chan func()
	// workerCount is the number of goroutines reading from tasks.
	workerCount int
}

// NewPool creates a new pool, with a certain number of workers.
//
// If count <= 0, this will use the number of available CPUs instead.
func NewPool(count int) *Pool {
	if count <= 0 {
		count = runtime.NumCPU()
	}
	p := &Pool{
		tasks:       make(chan func()),
		workerCount: count,
	}
	for i := 0; i < count; i++ {
		go func() {
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

// TearDown stops the workers. The pool must not be used afterwards.
func (p *Pool) TearDown() {
	if p == nil {
		return
	}
	close(p.tasks)
}

// Workers returns the number of workers, or 1 for a nil pool.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workerCount
}

// search holds the shared state of a single Search call.
type search struct {
	f       func() (interface{}, error)
	results []interface{}
	// remaining counts the successes still needed.
	remaining int64
	// attempts counts the calls to f still allowed.
	attempts int64

	mu  sync.Mutex
	err error
}

func (s *search) run() {
	for atomic.LoadInt64(&s.remaining) > 0 {
		if atomic.AddInt64(&s.attempts, -1) < 0 {
			s.fail(ErrExhausted)
			return
		}
		res, err := s.f()
		if err != nil {
			s.fail(err)
			return
		}
		if res == nil {
			continue
		}
		i := atomic.AddInt64(&s.remaining, -1)
		if i < 0 {
			return
		}
		s.results[i] = res
	}
}

// fail records the first error and makes every other worker stop.
func (s *search) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	atomic.StoreInt64(&s.remaining, 0)
}

// Search queries f until count successes are found, f fails, or f has been
// called attempts times in total.
//
// f tries a single candidate, returning (nil, nil) if that candidate isn't
// successful. A non nil error aborts the whole search and is returned as is.
//
// The result contains the first count successes.
func (p *Pool) Search(count, attempts int, f func() (interface{}, error)) ([]interface{}, error) {
	s := &search{
		f:         f,
		results:   make([]interface{}, count),
		remaining: int64(count),
		attempts:  int64(attempts),
	}
	if p == nil {
		s.run()
	} else {
		var wg sync.WaitGroup
		wg.Add(p.workerCount)
		for i := 0; i < p.workerCount; i++ {
			p.tasks <- func() {
				defer wg.Done()
				s.run()
			}
		}
		wg.Wait()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

// Parallelize calls a function count times, passing in indices from 0..count-1.
//
// The result will be a slice containing [f(0), f(1), ..., f(count - 1)].
func (p *Pool) Parallelize(count int, f func(int) interface{}) []interface{} {
	results := make([]interface{}, count)
	if p == nil {
		for i := range results {
			results[i] = f(i)
		}
		return results
	}

	var wg sync.WaitGroup
	wg.Add(count)
	for i := 0; i < count; i++ {
		i := i
		p.tasks <- func() {
			defer wg.Done()
			results[i] = f(i)
		}
	}
	wg.Wait()
	return results
}

// LockedReader wraps an io.Reader to be safe for concurrent reads.
//
// This means acquiring a lock whenever a read happens, so be aware of that
// for performance or concurrency reasons.
type LockedReader struct {
	reader io.Reader
	m      sync.Mutex
}

// NewLockedReader creates a LockedReader by wrapping an underlying value.
// Wrapping a *LockedReader returns it unchanged.
func NewLockedReader(r io.Reader) *LockedReader {
	if lr, ok := r.(*LockedReader); ok {
		return lr
	}
	// the zero value of m is ok
	return &LockedReader{reader: r}
}

// Read implements io.Reader for LockedReader.
//
// Which caller gets which bytes is raced, but no two callers ever observe
// the same output, and the state of the underlying reader stays consistent.
func (r *LockedReader) Read(p []byte) (int, error) {
	r.m.Lock()
	defer r.m.Unlock()
	return r.reader.Read(p)
}
