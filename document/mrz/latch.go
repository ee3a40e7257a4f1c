package mrz

import (
	"sync"
	"time"
)

// Latch holds the first accepted verdict of a scanning loop. Once a verdict
// has been accepted, later frames can no longer replace it. The zero value is
// ready to use.
type Latch struct {
	mutex    sync.Mutex
	accepted *Verdict
}

// Offer runs the pipeline over lines unless a verdict was already accepted,
// in which case the accepted verdict is returned unchanged.
func (l *Latch) Offer(lines []string, now time.Time) Verdict {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.accepted != nil {
		return *l.accepted
	}
	return l.keep(LocateAndParse(lines, now))
}

// Keep latches v if it is accepted and nothing was latched yet. It returns the
// verdict now held by the latch, or v itself when v is rejected and the latch is empty.
func (l *Latch) Keep(v Verdict) Verdict {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.accepted != nil {
		return *l.accepted
	}
	return l.keep(v)
}

func (l *Latch) keep(v Verdict) Verdict {
	if v.Accepted() {
		l.accepted = &v
	}
	return v
}

// Accepted returns the latched verdict, if any.
func (l *Latch) Accepted() (Verdict, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.accepted == nil {
		return Verdict{}, false
	}
	return *l.accepted, true
}

// Reset clears the latch so a new document can be scanned.
func (l *Latch) Reset() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.accepted = nil
}
