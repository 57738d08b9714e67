// File: internal/scrape/limiter.go
package scrape

// Limiter caps the total number of records a run collects. It is consulted
// both between rows within a page and between pages, so a limit of N never
// overshoots mid-page. A max of zero means unbounded.
type Limiter struct {
	max   int64
	count int64
}

// NewLimiter returns a limiter admitting up to max records; zero means no cap.
func NewLimiter(max int64) *Limiter {
	return &Limiter{max: max}
}

// Unbounded reports whether the limiter has no cap.
func (l *Limiter) Unbounded() bool { return l.max <= 0 }

// Satisfied reports whether the cap has been reached.
func (l *Limiter) Satisfied() bool {
	return !l.Unbounded() && l.count >= l.max
}

// Admit records one accepted record. Returns false, without counting, once
// the cap is reached.
func (l *Limiter) Admit() bool {
	if l.Satisfied() {
		return false
	}
	l.count++
	return true
}

// Count returns the number of records admitted so far.
func (l *Limiter) Count() int64 { return l.count }
