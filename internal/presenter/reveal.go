// Package presenter reveals a finished reply one rune at a time, the way a live
// typist would, with an escape hatch to show the whole text at once.
package presenter

import (
	"sync"
	"time"
)

// Sink receives the revealed text. Append creates the entry, Replace rewrites that
// same entry with a longer prefix.
type Sink interface {
	Append(text string)
	Replace(text string)
}

// Chunk is emitted after every write to the sink.
type Chunk struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// TickerFunc starts a tick source and returns its channel and a stop function.
type TickerFunc func() (<-chan time.Time, func())

// Every returns a TickerFunc backed by time.NewTicker.
func Every(interval time.Duration) TickerFunc {
	return func() (<-chan time.Time, func()) {
		t := time.NewTicker(interval)
		return t.C, t.Stop
	}
}

// Reveal is one running reveal. It owns its entry in the sink until it is done.
type Reveal struct {
	mu      sync.Mutex
	runes   []rune
	shown   int
	done    bool
	sink    Sink
	ticks   TickerFunc
	onChunk func(Chunk)

	skip     chan struct{}
	skipOnce sync.Once
	finished chan struct{}
}

// New prepares a reveal of target without writing anything. onChunk may be nil.
func New(target string, sink Sink, ticks TickerFunc, onChunk func(Chunk)) *Reveal {
	return &Reveal{
		runes:    []rune(target),
		sink:     sink,
		ticks:    ticks,
		onChunk:  onChunk,
		skip:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Start is New followed by Reveal.Start.
func Start(target string, sink Sink, ticks TickerFunc, onChunk func(Chunk)) *Reveal {
	r := New(target, sink, ticks, onChunk)
	r.Start()
	return r
}

// Start writes the first rune immediately and schedules the rest, one rune per tick.
// An empty target writes nothing. A skip requested before Start is honoured on the
// first step. Start must be called once.
func (r *Reveal) Start() {
	if len(r.runes) == 0 {
		r.mu.Lock()
		r.done = true
		r.mu.Unlock()
		close(r.finished)
		return
	}

	r.mu.Lock()
	r.shown = 1
	r.sink.Append(string(r.runes[:1]))
	r.done = len(r.runes) == 1
	r.emit()
	done := r.done
	r.mu.Unlock()

	if done {
		close(r.finished)
		return
	}

	tickC, stop := r.ticks()
	go r.run(tickC, stop)
}

func (r *Reveal) run(tickC <-chan time.Time, stop func()) {
	defer close(r.finished)
	defer stop()
	for {
		select {
		case <-r.skip:
			r.advance(len(r.runes))
			return
		case <-tickC:
			if r.advance(r.shown + 1) {
				return
			}
		}
	}
}

// advance shows the first n runes and reports whether the reveal is complete.
func (r *Reveal) advance(n int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return true
	}
	if n > len(r.runes) {
		n = len(r.runes)
	}
	r.shown = n
	r.done = n == len(r.runes)
	r.sink.Replace(string(r.runes[:n]))
	r.emit()
	return r.done
}

func (r *Reveal) emit() {
	if r.onChunk != nil {
		r.onChunk(Chunk{Text: string(r.runes[:r.shown]), Done: r.done})
	}
}

// SkipToEnd shows the full text and stops stepping. It returns once the final write
// has happened and is a no-op on a finished reveal.
func (r *Reveal) SkipToEnd() {
	r.skipOnce.Do(func() { close(r.skip) })
	<-r.finished
}

// Done is closed once the full text has been written.
func (r *Reveal) Done() <-chan struct{} {
	return r.finished
}

// InProgress reports whether runes remain to be shown.
func (r *Reveal) InProgress() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.done
}

// Text returns the currently shown prefix.
func (r *Reveal) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.runes[:r.shown])
}
