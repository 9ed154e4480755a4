package analyzer

import (
	"runtime"
	"time"
)

// DefaultMaxPixels bounds the decoded pixel buffer (40 megapixels)
const DefaultMaxPixels = 40_000_000

// AnalysisOptions configures resource usage of the pipeline. None of the
// options change the computed features or scores.
type AnalysisOptions struct {
	// Row-parallel filtering; 0 means one worker per CPU
	MaxWorkers int

	// Images whose header declares more pixels are rejected before decoding;
	// 0 disables the check
	MaxPixels int

	// Source of analysis timestamps; nil means time.Now
	Clock func() time.Time
}

// DefaultOptions returns default analysis options
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		MaxWorkers: 0,
		MaxPixels:  DefaultMaxPixels,
	}
}

// WithMaxWorkers sets the number of row workers used by the filters
func (opts AnalysisOptions) WithMaxWorkers(workers int) AnalysisOptions {
	opts.MaxWorkers = workers
	return opts
}

// WithMaxPixels sets the decoded size limit
func (opts AnalysisOptions) WithMaxPixels(pixels int) AnalysisOptions {
	opts.MaxPixels = pixels
	return opts
}

// WithClock sets the timestamp source
func (opts AnalysisOptions) WithClock(clock func() time.Time) AnalysisOptions {
	opts.Clock = clock
	return opts
}

func (opts AnalysisOptions) workers() int {
	if opts.MaxWorkers > 0 {
		return opts.MaxWorkers
	}
	return runtime.NumCPU()
}

func (opts AnalysisOptions) now() time.Time {
	if opts.Clock != nil {
		return opts.Clock()
	}
	return time.Now()
}
