package main

import (
	"io"
	"sync"

	"github.com/lewtec/datasetkit/internal/hook"
	"github.com/schollz/progressbar/v3"
)

// progress renders imports and exports as progress bars
type progress struct {
	out io.Writer
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newProgress(out io.Writer) *progress {
	return &progress{out: out}
}

func (p *progress) Key() string {
	return "progress"
}

func (p *progress) start(total int, description string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if total <= 0 {
		total = -1
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progress) step() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Add(1)
	}
}

func (p *progress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}

func (p *progress) OnEvent(event hook.Event, payload hook.Payload) {
	switch event {
	case hook.ImportStart:
		p.start(payload.Total, "importing "+payload.Dataset)
	case hook.ExportStart:
		p.start(-1, "exporting "+payload.Format)
	case hook.ImageAdded, hook.ImageExported:
		p.step()
	case hook.ImportEnd, hook.ExportEnd:
		p.finish()
	}
}

var _ hook.Handler = (*progress)(nil)
