// Package progressbar implements functionality of printing a progress
// bar to a terminal window
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressBar is a progress bar which must be manually redrawn. That
// is, Display must be called whenever an updated progress bar should
// be written. A ProgressBar is safe for concurrent use.
type ProgressBar struct {
	mu sync.Mutex
	w  io.Writer

	// width is the number of characters wide the bar is drawn
	width int

	// maxProgress determines the number of times Increment should
	// be called before the progress bar reaches 100%
	maxProgress     int
	currentProgress int

	bar       strings.Builder
	startTime time.Time
	closed    bool
}

// New returns a new ProgressBar which writes to w, is width characters
// wide, and reaches 100% after max calls to Increment
func New(w io.Writer, width, max int) *ProgressBar {
	if width <= 0 {
		panic("new: width must be positive")
	}
	if max <= 0 {
		panic("new: max must be positive")
	}
	return &ProgressBar{
		w:           w,
		width:       width,
		maxProgress: max,
		startTime:   time.Now(),
	}
}

// Increment increments the internal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
}

// Progress returns the number of recorded increments
func (p *ProgressBar) Progress() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentProgress
}

// Display redraws the progress bar over the current line
func (p *ProgressBar) Display() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	fmt.Fprintf(p.w, "\r\033[K%v", p.render())
}

// Close draws the bar a final time and moves to the next line. Calling
// Close on a closed progress bar panics.
func (p *ProgressBar) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		panic("close: close on closed progress bar")
	}
	p.closed = true
	fmt.Fprintf(p.w, "\r\033[K%v\n", p.render())
}

func (p *ProgressBar) render() string {
	p.bar.Reset()
	p.bar.WriteString("|")

	filled := p.currentProgress * p.width / p.maxProgress
	p.bar.WriteString(strings.Repeat("█", filled))
	p.bar.WriteString(strings.Repeat(" ", p.width-filled))

	percent := float64(p.currentProgress) / float64(p.maxProgress) * 100
	fmt.Fprintf(&p.bar, "| [%.2f%% | elapsed: %v]", percent,
		time.Since(p.startTime).Truncate(time.Second))

	return p.bar.String()
}
