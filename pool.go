package md2doc

import (
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps concurrent conversions; parsing is CPU bound and
	// memory grows with each document held in flight.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for file I/O and output encoding.
	cpuDivisor = 2
)

// ConverterPool hands out a bounded number of Converters. All of them share
// the registry of the first one, so filters are registered once.
// Converters are created lazily on first acquire.
type ConverterPool struct {
	size       int
	opts       []Option
	converters []*Converter
	sem        chan *Converter
	mu         sync.Mutex
	created    int
}

// NewConverterPool creates a pool with capacity for n Converters built with
// opts. The first Converter is built immediately so option errors surface
// here rather than on Acquire.
func NewConverterPool(n int, opts ...Option) (*ConverterPool, error) {
	if n < MinPoolSize {
		n = MinPoolSize
	}

	first, err := NewConverter(opts...)
	if err != nil {
		return nil, err
	}

	p := &ConverterPool{
		size:       n,
		opts:       append(append([]Option(nil), opts...), WithRegistry(first.Registry())),
		converters: make([]*Converter, 0, n),
		sem:        make(chan *Converter, n),
	}
	p.converters = append(p.converters, first)
	p.created = 1
	p.sem <- first
	return p, nil
}

// Acquire gets a Converter from the pool, creating one if needed.
// Blocks if all Converters are in use. Returns nil if a new Converter
// could not be built.
func (p *ConverterPool) Acquire() *Converter {
	// Try to get an idle converter (non-blocking)
	select {
	case c := <-p.sem:
		return c
	default:
	}

	p.mu.Lock()
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		c, err := NewConverter(p.opts...)
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil
		}

		p.mu.Lock()
		p.converters = append(p.converters, c)
		p.mu.Unlock()
		return c
	}
	p.mu.Unlock()

	// All converters created, wait for one to be released
	return <-p.sem
}

// Release returns a Converter to the pool.
func (p *ConverterPool) Release(c *Converter) {
	if c == nil {
		return
	}
	p.sem <- c
}

// Size returns the pool capacity.
func (p *ConverterPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return min(workers, MaxPoolSize)
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers
	n := runtime.GOMAXPROCS(0) / cpuDivisor
	return max(MinPoolSize, min(n, MaxPoolSize))
}
