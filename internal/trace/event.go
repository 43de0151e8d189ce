package trace

import "time"

// Kind of a trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint     // instant event, see Log
	KindHeartbeat // periodic liveness signal
)

var kindNames = [...]string{"unknown", "begin", "end", "point", "heartbeat"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[0]
}

// Scope is the granularity of an event; smaller is coarser.
type Scope uint8

const (
	// ScopeDriver: CLI commands and workspace batches.
	ScopeDriver Scope = iota + 1
	// ScopeUnit: one translation-unit build and its failures.
	ScopeUnit
	// ScopePhase: phases inside a build (check setup, matching, execute).
	ScopePhase
	// ScopeDetail: per-include and per-diagnostic events.
	ScopeDetail
)

var scopeNames = [...]string{"unknown", "driver", "unit", "phase", "detail"}

func (s Scope) String() string {
	if int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return scopeNames[0]
}

// Event is one record of the trace stream.
type Event struct {
	Time     time.Time
	Seq      uint64 // global, monotonic
	Kind     Kind
	Scope    Scope
	SpanID   uint64 // 0 for points and heartbeats
	ParentID uint64
	GID      uint64 // tells concurrent unit builds apart
	Name     string // "unit.build", "workspace.preamble-failed", ...
	Detail   string
	Extra    map[string]string // "file" for unit events
}
