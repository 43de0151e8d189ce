package trace

import (
	"strconv"
	"sync"
	"time"
)

// Heartbeat periodically emits heartbeat events. Heartbeats without span
// ends in between point at a build that is stuck.
type Heartbeat struct {
	tracer Tracer
	done   chan struct{}
	exited chan struct{}
	once   sync.Once
}

// StartHeartbeat starts the heartbeat goroutine; nil when tracing is off.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{tracer: tracer, done: make(chan struct{}), exited: make(chan struct{})}
	go h.run(time.NewTicker(interval))
	return h
}

func (h *Heartbeat) run(ticker *time.Ticker) {
	defer close(h.exited)
	defer ticker.Stop()

	for n := 1; ; n++ {
		select {
		case <-h.done:
			return
		case now := <-ticker.C:
			h.tracer.Emit(&Event{
				Time:   now,
				Seq:    NextSeq(),
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				GID:    getGoroutineID(),
				Name:   "heartbeat",
				Detail: "#" + strconv.Itoa(n),
			})
		}
	}
}

// Stop stops the goroutine and waits for it. Safe on nil and when called twice.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.done) })
	<-h.exited
}
