package diagnostics

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Save writes the DTC table and event log to w in a fixed-width
// binary encoding, preserving every field of both entity types so
// Load round-trips identically (spec §6). The encoding follows the
// teacher's own wire-codec idiom (encoding/binary, little-endian,
// fixed field widths) rather than a generic schema'd format, since
// every entity here is small and statically shaped.
func (s *Store) Save(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s.table))); err != nil {
		return fmt.Errorf("write dtc count: %w", err)
	}
	for i := range s.table {
		if err := writeEntry(w, &s.table[i]); err != nil {
			return fmt.Errorf("write dtc[%d]: %w", i, err)
		}
	}

	events := s.events.snapshot()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(events))); err != nil {
		return fmt.Errorf("write event count: %w", err)
	}
	for i := range events {
		if err := writeEvent(w, &events[i]); err != nil {
			return fmt.Errorf("write event[%d]: %w", i, err)
		}
	}
	return nil
}

// Load replaces the store's contents with the encoding written by
// Save. The active count is recomputed from the loaded table rather
// than persisted separately, so it can never desync from the entries
// it summarizes.
func (s *Store) Load(r io.Reader) error {
	var dtcCount uint32
	if err := binary.Read(r, binary.LittleEndian, &dtcCount); err != nil {
		return fmt.Errorf("read dtc count: %w", err)
	}
	if dtcCount != uint32(len(s.table)) {
		return fmt.Errorf("dtc table size mismatch: file has %d, store has %d", dtcCount, len(s.table))
	}
	var table [MaxDTC]Entry
	for i := range table {
		entry, err := readEntry(r)
		if err != nil {
			return fmt.Errorf("read dtc[%d]: %w", i, err)
		}
		table[i] = entry
	}

	var eventCount uint32
	if err := binary.Read(r, binary.LittleEndian, &eventCount); err != nil {
		return fmt.Errorf("read event count: %w", err)
	}
	log := newEventLog()
	for i := uint32(0); i < eventCount; i++ {
		rec, err := readEvent(r)
		if err != nil {
			return fmt.Errorf("read event[%d]: %w", i, err)
		}
		log.push(rec)
	}

	s.table = table
	s.events = log
	activeCount := 0
	for i := range s.table {
		if s.table[i].Active {
			activeCount++
		}
	}
	s.activeCount = activeCount
	return nil
}

func writeEntry(w io.Writer, e *Entry) error {
	fields := []any{
		e.Code,
		boolToByte(e.Active),
		boolToByte(e.Pending),
		boolToByte(e.Confirmed),
		e.FirstOccurrenceMs,
		e.LastOccurrenceMs,
		e.ClearedMs,
		e.OccurrenceCount,
		e.ClearCount,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

func readEntry(r io.Reader) (Entry, error) {
	var e Entry
	var active, pending, confirmed byte
	targets := []any{
		&e.Code,
		&active,
		&pending,
		&confirmed,
		&e.FirstOccurrenceMs,
		&e.LastOccurrenceMs,
		&e.ClearedMs,
		&e.OccurrenceCount,
		&e.ClearCount,
	}
	for _, t := range targets {
		if err := binary.Read(r, binary.LittleEndian, t); err != nil {
			return Entry{}, err
		}
	}
	e.Active = active != 0
	e.Pending = pending != 0
	e.Confirmed = confirmed != 0
	return e, nil
}

func writeEvent(w io.Writer, rec *eventRecord) error {
	if err := binary.Write(w, binary.LittleEndian, rec.Type); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, rec.Data); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, rec.TimestampMs)
}

func readEvent(r io.Reader) (eventRecord, error) {
	var rec eventRecord
	if err := binary.Read(r, binary.LittleEndian, &rec.Type); err != nil {
		return eventRecord{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &rec.Data); err != nil {
		return eventRecord{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &rec.TimestampMs); err != nil {
		return eventRecord{}, err
	}
	return rec, nil
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
