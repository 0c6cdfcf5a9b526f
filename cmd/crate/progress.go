package main

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progressDisplay draws a bar on stderr when it is a terminal and does
// nothing otherwise.
type progressDisplay struct {
	bar *progressbar.ProgressBar
}

func newByteProgress(w io.Writer, enabled bool, description string) *progressDisplay {
	if !enabled {
		return &progressDisplay{}
	}
	return &progressDisplay{bar: progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)}
}

func newPercentProgress(w io.Writer, enabled bool, description string) *progressDisplay {
	if !enabled {
		return &progressDisplay{}
	}
	return &progressDisplay{bar: progressbar.NewOptions64(1000,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)}
}

// bytes reports received of total bytes. Safe for concurrent use.
func (p *progressDisplay) bytes(received, total int64) {
	if p.bar == nil {
		return
	}
	if p.bar.GetMax64() != total {
		p.bar.ChangeMax64(total)
	}
	_ = p.bar.Set64(received)
}

// fraction reports progress in [0, 1].
func (p *progressDisplay) fraction(f float64) {
	if p.bar == nil {
		return
	}
	_ = p.bar.Set64(int64(f * 1000))
}

func (p *progressDisplay) finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
