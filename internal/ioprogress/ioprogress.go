// Package ioprogress shows curation progress on the terminal.
package ioprogress

import (
	"io"
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"
)

// Bar is a terminal progress bar. It implements curation.Progress.
type Bar struct {
	mu       sync.Mutex
	bar      *pb.ProgressBar
	finished bool
}

// New starts a progress bar on stderr. A zero total shows a counter
// without percentage.
func New(total int, prefix string) *Bar {
	return NewWithWriter(os.Stderr, total, prefix)
}

// NewWithWriter starts a progress bar that writes to w.
func NewWithWriter(w io.Writer, total int, prefix string) *Bar {
	tmpl := pb.Full
	if total <= 0 {
		tmpl = `{{ string . "prefix" }} {{ counters . }} {{ speed . }} {{ etime . }}`
	}
	bar := pb.New(total)
	bar.SetTemplate(tmpl)
	bar.SetWriter(w)
	bar.Set("prefix", prefix)
	bar.Set(pb.CleanOnFinish, true)
	bar.Start()
	return &Bar{bar: bar}
}

// Add advances the bar by n records.
func (b *Bar) Add(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar != nil {
		b.bar.Add(n)
	}
}

// Current returns the number of records counted so far.
func (b *Bar) Current() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		return 0
	}
	return b.bar.Current()
}

// Finish stops the bar. It is safe to call more than once.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar != nil && !b.finished {
		b.bar.Finish()
		b.finished = true
	}
}
