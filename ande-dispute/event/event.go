// Package event carries the notifications emitted by the factory and its games
// to any number of derivers (journal, metrics), synchronously and in emission order.
package event

import (
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

type Event interface {
	String() string
}

type Emitter interface {
	Emit(ev Event)
}

// Deriver processes events. It returns false if the event was not of interest.
type Deriver interface {
	OnEvent(ev Event) bool
}

type DeriverFunc func(ev Event) bool

func (fn DeriverFunc) OnEvent(ev Event) bool {
	return fn(ev)
}

type NoopEmitter struct{}

var _ Emitter = NoopEmitter{}

func (NoopEmitter) Emit(ev Event) {}

// Bus fans every emitted event out to all registered derivers.
// Derivers must not emit events themselves.
type Bus struct {
	log      log.Logger
	mu       sync.RWMutex
	derivers []Deriver
}

var _ Emitter = (*Bus)(nil)

func NewBus(logger log.Logger) *Bus {
	return &Bus{log: logger}
}

func (b *Bus) AddDeriver(d Deriver) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.derivers = append(b.derivers, d)
}

func (b *Bus) Emit(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	handled := false
	for _, d := range b.derivers {
		if d.OnEvent(ev) {
			handled = true
		}
	}
	if !handled {
		b.log.Trace("Event not handled", "event", ev)
	}
}
