package definition

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Timeline emits the CLI's machine-parseable progress stream, one line per
// completed phase: `TL:<id>\t<phase>\t<seconds>`. Kept entirely separate
// from the structured Logger, which writes to stderr, so stdout stays
// parseable the way §6 requires.
type Timeline struct {
	mutex sync.Mutex
	out   io.Writer
	id    int
	start time.Time
}

// NewTimeline returns a Timeline writing to stdout for the given peer id.
func NewTimeline(id int) *Timeline {
	return &Timeline{
		out:   os.Stdout,
		id:    id,
		start: monotonicNow(),
	}
}

// Mark records that the given phase has just completed, printing the
// elapsed seconds since the timeline was created.
func (t *Timeline) Mark(phase string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	elapsed := monotonicNow().Sub(t.start).Seconds()
	fmt.Fprintf(t.out, "TL:%d\t%s\t%.3f\n", t.id, phase, elapsed)
}

// monotonicNow is isolated in its own function so tests can see exactly
// where wall-clock time enters the package.
func monotonicNow() time.Time {
	return time.Now()
}
