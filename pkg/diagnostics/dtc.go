// Package diagnostics implements the diagnostic trouble-code (DTC)
// store and circular event log (spec §4.3, component C3): the
// fault-data back end consumed by every other subsystem. The fixed
// table + circular log shape follows the teacher's emergency.go
// (capacity-bounded error-status table) and its fifo-backed history,
// generalized via internal/ringbuf.
package diagnostics

import (
	"fmt"

	"github.com/ebs-eps/core/pkg/safety"
	"github.com/sirupsen/logrus"
)

// Capacity constants from spec §4.3.
const (
	MaxDTC             = 50
	MaxEvents          = 100
	ConfirmThreshold   = 3
	ConfirmTimeMs      = 10_000
)

// Code is a 16-bit diagnostic trouble code.
type Code uint16

// EventType tags a diagnostic event log entry.
type EventType uint8

const (
	EventDtcSet EventType = iota
	EventDtcConfirmed
	EventDtcCleared
)

func (e EventType) String() string {
	switch e {
	case EventDtcSet:
		return "DtcSet"
	case EventDtcConfirmed:
		return "DtcConfirmed"
	case EventDtcCleared:
		return "DtcCleared"
	default:
		return "Unknown"
	}
}

// Entry is one DTC table row (spec §3). Confirmed implies Active by
// construction: Store never sets Confirmed without Active already
// being true.
type Entry struct {
	Code               Code
	Active             bool
	Pending            bool
	Confirmed          bool
	FirstOccurrenceMs  uint32
	LastOccurrenceMs   uint32
	ClearedMs          uint32
	OccurrenceCount    uint32
	ClearCount         uint32
}

// inUse reports whether this table slot holds a real entry (as
// opposed to being an empty slot available for reuse). A cleared,
// never-reactivated entry remains "in use" so re-activation finds the
// same slot rather than duplicating (spec §4.3 "first empty slot").
func (e *Entry) inUse() bool {
	return e.Code != 0 || e.Active || e.OccurrenceCount != 0
}

// Store is the fixed-capacity DTC table plus circular event log. It is
// a process-wide singleton with a single writer (the scheduler loop),
// matching spec §5's shared-resource policy.
type Store struct {
	logger *logrus.Entry

	table      [MaxDTC]Entry
	activeCount int

	events *eventLog
}

// NewStore constructs an empty diagnostic store.
func NewStore(logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Store{
		logger: logger.WithField("service", "[DIAG]"),
		events: newEventLog(),
	}
}

// SetDTC implements spec §4.3's set_dtc operation: if an active entry
// with this code exists, bump its occurrence count and last-occurrence
// timestamp; if a cleared entry exists, reactivate it; otherwise
// insert into the first empty slot. Fails with BufferFull if the table
// has no room. Promotes pending -> confirmed per the spec's threshold.
func (s *Store) SetDTC(code Code, nowMs uint32) error {
	if idx := s.findLocked(code); idx >= 0 {
		entry := &s.table[idx]
		if entry.Active {
			entry.OccurrenceCount++
			entry.LastOccurrenceMs = nowMs
		} else {
			entry.Active = true
			entry.Pending = true
			entry.OccurrenceCount++
			entry.LastOccurrenceMs = nowMs
			s.activeCount++
			s.logEvent(EventDtcSet, uint32(code), nowMs)
		}
		s.maybeConfirm(entry, nowMs)
		return nil
	}

	slot := s.firstEmptySlot()
	if slot < 0 {
		return fmt.Errorf("dtc table full (capacity %d): %w", MaxDTC, safety.ErrBufferFull)
	}
	entry := &s.table[slot]
	*entry = Entry{
		Code:              code,
		Active:            true,
		Pending:           true,
		FirstOccurrenceMs: nowMs,
		LastOccurrenceMs:  nowMs,
		OccurrenceCount:   1,
	}
	s.activeCount++
	s.logEvent(EventDtcSet, uint32(code), nowMs)
	s.maybeConfirm(entry, nowMs)
	return nil
}

func (s *Store) maybeConfirm(entry *Entry, nowMs uint32) {
	if entry.Confirmed {
		return
	}
	timeSinceFirst := nowMs - entry.FirstOccurrenceMs
	if entry.OccurrenceCount >= ConfirmThreshold || timeSinceFirst >= ConfirmTimeMs {
		entry.Confirmed = true
		entry.Pending = false
		s.logEvent(EventDtcConfirmed, uint32(entry.Code), nowMs)
	}
}

// ClearDTC clears a matching active entry: records the clear
// timestamp, increments the clear count, decrements the active count
// (saturating at 0), and emits DtcCleared.
func (s *Store) ClearDTC(code Code, nowMs uint32) error {
	idx := s.findLocked(code)
	if idx < 0 || !s.table[idx].Active {
		return nil
	}
	entry := &s.table[idx]
	entry.Active = false
	entry.Pending = false
	entry.Confirmed = false
	entry.ClearedMs = nowMs
	entry.ClearCount++
	if s.activeCount > 0 {
		s.activeCount--
	}
	s.logEvent(EventDtcCleared, uint32(code), nowMs)
	return nil
}

// IsActive reports whether code currently has an active entry.
func (s *Store) IsActive(code Code) bool {
	idx := s.findLocked(code)
	return idx >= 0 && s.table[idx].Active
}

// ActiveCount returns the number of currently active DTCs.
func (s *Store) ActiveCount() int {
	return s.activeCount
}

// Statistics returns a copy of the entry for code, and whether it
// exists at all (including cleared-but-retained entries).
func (s *Store) Statistics(code Code) (Entry, bool) {
	idx := s.findLocked(code)
	if idx < 0 {
		return Entry{}, false
	}
	return s.table[idx], true
}

// findLocked returns the table index of code, or -1. Ties (which must
// not occur by invariant) resolve to the first match.
func (s *Store) findLocked(code Code) int {
	for i := range s.table {
		if s.table[i].inUse() && s.table[i].Code == code {
			return i
		}
	}
	return -1
}

func (s *Store) firstEmptySlot() int {
	for i := range s.table {
		if !s.table[i].inUse() {
			return i
		}
	}
	return -1
}

func (s *Store) logEvent(eventType EventType, data uint32, nowMs uint32) {
	s.events.push(eventRecord{Type: eventType, Data: data, TimestampMs: nowMs})
}

// LogEvent satisfies safety.EventSink, letting the supervisor log raw
// events (e.g. the shutdown event) through the same circular log.
func (s *Store) LogEvent(eventType uint8, data uint32, timestampMs uint32) {
	s.events.push(eventRecord{Type: EventType(eventType), Data: data, TimestampMs: timestampMs})
}

// Events returns a snapshot of the event log in FIFO order (oldest
// first).
func (s *Store) Events() []eventRecord {
	return s.events.snapshot()
}
