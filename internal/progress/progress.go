// Package progress implements the stdout wire protocol both binaries use to
// report progress (0x2e per completed unit, 0x21 at the end), plus an
// optional human-readable mirror on stderr for interactive terminals.
package progress

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

const (
	unitByte = 0x2e
	doneByte = 0x21
)

// Reporter emits the stdout protocol byte per completed unit and tracks a
// running total for an optional stderr progress line. Safe for concurrent
// use by multiple growth workers.
type Reporter struct {
	out   io.Writer
	mu    sync.Mutex // serializes writes to out
	count int64

	mirror bool
	total  int
}

// New returns a Reporter writing the wire protocol to out. When stderr is
// a terminal, Tick also logs a human-readable running count; total is used
// only for that log line's context and may be zero if unknown.
func New(out io.Writer, total int) *Reporter {
	return &Reporter{
		out:    out,
		mirror: isatty.IsTerminal(os.Stderr.Fd()),
		total:  total,
	}
}

// Tick reports one completed unit of work.
func (r *Reporter) Tick() {
	n := atomic.AddInt64(&r.count, 1)

	r.mu.Lock()
	r.out.Write([]byte{unitByte})
	r.mu.Unlock()

	if r.mirror && n%50 == 0 {
		if r.total > 0 {
			slog.Info("progress", "completed", humanize.Comma(n), "seeded_from", r.total)
		} else {
			slog.Info("progress", "completed", humanize.Comma(n))
		}
	}
}

// Done emits the end-of-work byte.
func (r *Reporter) Done() {
	r.mu.Lock()
	r.out.Write([]byte{doneByte})
	r.mu.Unlock()

	if r.mirror {
		slog.Info("progress complete", "total", humanize.Comma(atomic.LoadInt64(&r.count)))
	}
}
