package cmd

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// progressPrinter shows batch scan progress on stderr so it never mixes
// with rendered results on stdout.
type progressPrinter struct {
	total    int
	mu       sync.Mutex
	ok       int
	fail     int
	updates  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	finished chan struct{}
}

func newProgressPrinter(total int) *progressPrinter {
	if total <= 0 {
		total = 1
	}
	return &progressPrinter{
		total:    total,
		updates:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

func (p *progressPrinter) Start() {
	go p.loop()
}

func (p *progressPrinter) Increment(success bool) {
	p.mu.Lock()
	if success {
		p.ok++
	} else {
		p.fail++
	}
	p.mu.Unlock()

	select {
	case p.updates <- struct{}{}:
	default:
	}
}

func (p *progressPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
	<-p.finished
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", 60))
	p.print()
	fmt.Fprintln(os.Stderr)
}

func (p *progressPrinter) loop() {
	defer close(p.finished)
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.updates:
			p.print()
		case <-ticker.C:
			p.print()
		case <-p.done:
			return
		}
	}
}

func (p *progressPrinter) print() {
	p.mu.Lock()
	ok, fail := p.ok, p.fail
	p.mu.Unlock()
	fmt.Fprintf(os.Stderr, "\rscanning %d/%d (%s ok, %s failed)",
		ok+fail, p.total, colorSuccess(ok), colorError(fail))
}
