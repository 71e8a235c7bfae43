// Package progress provides sinks for packing progress.
package progress

import (
	"io"
	"math"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// steps is the resolution of the terminal bar.
const steps = 1000

// Bar renders progress as a terminal progress bar.
type Bar struct {
	bar  *progressbar.ProgressBar
	last int
}

// NewBar creates a bar writing to w.
func NewBar(w io.Writer, description string) *Bar {
	bar := progressbar.NewOptions(steps,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
	)
	return &Bar{bar: bar}
}

// Report moves the bar to fraction. Values are clamped to [0, 1] and the bar
// never moves backwards.
func (b *Bar) Report(fraction float64) {
	n := int(math.Round(clamp(fraction) * steps))
	if n <= b.last {
		return
	}
	b.last = n
	_ = b.bar.Set(n)
}

// Finish completes the bar.
func (b *Bar) Finish() {
	b.last = steps
	_ = b.bar.Finish()
}

// Nop discards progress.
type Nop struct{}

func (Nop) Report(float64) {}

// Recorder keeps every reported fraction.
type Recorder struct {
	mu     sync.Mutex
	values []float64
}

func (r *Recorder) Report(fraction float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, fraction)
}

// Values returns a copy of the reported fractions in order.
func (r *Recorder) Values() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.values))
	copy(out, r.values)
	return out
}

func clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
