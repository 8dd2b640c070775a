package boundary

import (
	"fmt"

	"github.com/starford/homilyd/internal/apperr"
	"github.com/starford/homilyd/internal/models"
)

// Verdict classifies a boundary window's duration.
type Verdict string

const (
	VerdictOK         Verdict = "ok"
	VerdictSuspicious Verdict = "suspicious"
	// VerdictInvalid means the window has no positive length, which the
	// detector should never produce.
	VerdictInvalid Verdict = "invalid"
)

// Validate checks the window duration against limits. It never blocks
// extraction; callers alert on anything but VerdictOK.
func Validate(w models.BoundaryWindow, limits Limits) Verdict {
	d := w.Duration()
	switch {
	case d <= 0:
		return VerdictInvalid
	case d < limits.MinSeconds || d > limits.MaxSeconds:
		return VerdictSuspicious
	default:
		return VerdictOK
	}
}

// Err returns nil for VerdictOK and a wrapped apperr.ErrSuspiciousDuration otherwise.
func (v Verdict) Err(w models.BoundaryWindow) error {
	if v == VerdictOK {
		return nil
	}
	return fmt.Errorf("boundary: %s window of %.1fs: %w", v, w.Duration(), apperr.ErrSuspiciousDuration)
}
