package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ZanzyTHEbar/scout/scanner"
)

// IndexProcessor is the watch package's BatchProcessor: a single worker
// goroutine draining a bounded FIFO, routing each debounced event through
// the scanner's single-file acceptance decision and, on acceptance, through
// a FileIndexer. The queue is bounded; once full, the oldest pending event
// is dropped in favor of the new one and DroppedEvents is incremented,
// rather than blocking the watch loop or growing without bound.
type IndexProcessor struct {
	indexer FileIndexer
	opts    scanner.ScanOptions

	mu      sync.Mutex
	queue   []Event
	cap     int
	dropped int64

	notify chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewIndexProcessor starts its single worker immediately; Close stops it.
func NewIndexProcessor(indexer FileIndexer, opts scanner.ScanOptions, capacity int) *IndexProcessor {
	if capacity <= 0 {
		capacity = 1000
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &IndexProcessor{
		indexer: indexer,
		opts:    opts,
		cap:     capacity,
		notify:  make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
	p.wg.Add(1)
	go p.worker()
	return p
}

// Process enqueues a debounced batch, dropping the oldest queued event per
// new arrival once the queue is full.
func (p *IndexProcessor) Process(ctx context.Context, events []Event) error {
	p.mu.Lock()
	for _, e := range events {
		if len(p.queue) >= p.cap {
			p.queue = p.queue[1:]
			p.dropped++
		}
		p.queue = append(p.queue, e)
	}
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
	return nil
}

func (p *IndexProcessor) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-p.notify:
			for {
				ev, ok := p.dequeue()
				if !ok {
					break
				}
				p.handle(ev)
			}
		}
	}
}

func (p *IndexProcessor) dequeue() (Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return Event{}, false
	}
	ev := p.queue[0]
	p.queue = p.queue[1:]
	return ev, true
}

func (p *IndexProcessor) handle(ev Event) {
	if ev.Type == EventRemove {
		// Sidecars are content-hash addressed under the source file's own
		// directory; a bare removal event carries no hash to act on, and a
		// rename/move is delivered as its own Create at the new path.
		return
	}

	accepted, ok, err := scanner.AcceptPath(ev.Path, p.opts)
	if err != nil {
		slog.Warn("watch: accept decision failed", "path", ev.Path, "error", err)
		return
	}
	if !ok {
		return
	}

	if err := p.indexer.Index(p.ctx, accepted); err != nil {
		slog.Error("watch: index failed", "path", ev.Path, "error", err)
	}
}

// DroppedEvents returns the number of queued events discarded due to
// overflow since the processor started.
func (p *IndexProcessor) DroppedEvents() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Close cancels the worker and waits for it to return. A drain already in
// progress runs on through every queued event, with the cancelled context,
// before the worker exits.
func (p *IndexProcessor) Close() error {
	p.cancel()
	p.wg.Wait()
	return nil
}

// SimpleProcessor forwards every event to handler one at a time, with no
// queueing of its own; WatchPaths uses it for callers that only want a
// callback and accept the watcher's own channel backpressure.
type SimpleProcessor struct {
	handler func(ctx context.Context, event Event) error
}

// NewSimpleProcessor creates a new simple processor.
func NewSimpleProcessor(handler func(ctx context.Context, event Event) error) *SimpleProcessor {
	return &SimpleProcessor{
		handler: handler,
	}
}

// Process processes events one by one.
func (p *SimpleProcessor) Process(ctx context.Context, events []Event) error {
	for _, event := range events {
		if err := p.handler(ctx, event); err != nil {
			return fmt.Errorf("error processing event %v: %w", event, err)
		}
	}
	return nil
}

// Close is a no-op for simple processor.
func (p *SimpleProcessor) Close() error {
	return nil
}
