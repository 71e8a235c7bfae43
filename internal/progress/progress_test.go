package progress

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBarNeverMovesBackwards(t *testing.T) {
	b := NewBar(io.Discard, "packing")

	b.Report(0.3)
	assert.Equal(t, 300, b.last)
	b.Report(0.2)
	assert.Equal(t, 300, b.last)
	b.Report(2)
	assert.Equal(t, steps, b.last)
	b.Finish()
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Report(0.1)
	r.Report(0.5)

	got := r.Values()
	assert.Equal(t, []float64{0.1, 0.5}, got)

	got[0] = 9
	assert.Equal(t, 0.1, r.Values()[0])
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-1))
	assert.Equal(t, 0.25, clamp(0.25))
	assert.Equal(t, 1.0, clamp(1.5))
}
