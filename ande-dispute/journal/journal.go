// Package journal keeps an append-only, sequenced record of every factory and game event.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ande-labs/ande/ande-dispute/event"
)

var ErrClosed = errors.New("journal closed")

// Record is one journaled event. Sequence numbers start at 1 and have no gaps.
type Record struct {
	Seq  uint64          `json:"seq"`
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type Journal interface {
	Append(ev event.Event) (Record, error)
	// Range returns up to limit records with a sequence number of at least from.
	// A zero limit returns all of them.
	Range(from uint64, limit uint64) ([]Record, error)
	Close() error
}

func newRecord(seq uint64, ev event.Event) (Record, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode %s event: %w", ev, err)
	}
	return Record{Seq: seq, Kind: ev.String(), Data: data}, nil
}

// Memory is a journal which lives only as long as the process.
type Memory struct {
	mu      sync.RWMutex
	records []Record
	closed  bool
}

var _ Journal = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(ev event.Event) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Record{}, ErrClosed
	}
	rec, err := newRecord(uint64(len(m.records))+1, ev)
	if err != nil {
		return Record{}, err
	}
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *Memory) Range(from uint64, limit uint64) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	if from == 0 {
		from = 1
	}
	if from > uint64(len(m.records)) {
		return nil, nil
	}
	out := m.records[from-1:]
	if limit != 0 && limit < uint64(len(out)) {
		out = out[:limit]
	}
	return append([]Record(nil), out...), nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Recorder journals every event it sees.
type Recorder struct {
	log     log.Logger
	journal Journal
}

var _ event.Deriver = (*Recorder)(nil)

func NewRecorder(logger log.Logger, j Journal) *Recorder {
	return &Recorder{log: logger, journal: j}
}

func (r *Recorder) OnEvent(ev event.Event) bool {
	rec, err := r.journal.Append(ev)
	if err != nil {
		r.log.Error("Failed to journal event", "event", ev, "err", err)
		return true
	}
	r.log.Trace("Journaled event", "seq", rec.Seq, "kind", rec.Kind)
	return true
}
