package diagnostics

import "github.com/ebs-eps/core/internal/ringbuf"

// eventRecord is one circular event-log entry (spec §3).
type eventRecord struct {
	Type        EventType
	Data        uint32
	TimestampMs uint32
}

// eventLog is the fixed-capacity circular event log from spec §4.3:
// writes go to the next slot; once full, the oldest entry is
// overwritten rather than resizing.
type eventLog struct {
	buf *ringbuf.Buffer[eventRecord]
}

func newEventLog() *eventLog {
	return &eventLog{buf: ringbuf.New[eventRecord](MaxEvents)}
}

func (l *eventLog) push(rec eventRecord) {
	l.buf.Push(rec)
}

// snapshot returns every surviving entry, oldest first.
func (l *eventLog) snapshot() []eventRecord {
	out := make([]eventRecord, 0, l.buf.Len())
	l.buf.Each(func(v eventRecord) {
		out = append(out, v)
	})
	return out
}
