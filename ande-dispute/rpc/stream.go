package rpc

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/websocket"

	"github.com/ande-labs/ande/ande-dispute/journal"
)

const (
	EventStreamPath = "/events"

	streamBatchSize    = 256
	streamWriteTimeout = 10 * time.Second
)

// EventStream pushes journal records to websocket clients as they are appended.
// Clients pick their starting sequence with the "from" query parameter.
type EventStream struct {
	log      log.Logger
	events   EventSource
	poll     time.Duration
	upgrader websocket.Upgrader

	closeOnce sync.Once
	closed    chan struct{}
}

func NewEventStream(logger log.Logger, events EventSource, poll time.Duration) *EventStream {
	return &EventStream{
		log:    logger,
		events: events,
		poll:   poll,
		closed: make(chan struct{}),
	}
}

func (s *EventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	from := uint64(1)
	if v := r.URL.Query().Get("from"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid from sequence", http.StatusBadRequest)
			return
		}
		from = n
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("Failed to upgrade event stream", "err", err)
		return
	}
	defer conn.Close()

	// The reader only observes the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		records, err := s.events.Range(from, streamBatchSize)
		if errors.Is(err, journal.ErrClosed) {
			s.closeConn(conn, websocket.CloseGoingAway, "journal closed")
			return
		} else if err != nil {
			s.log.Error("Failed to read journal", "from", from, "err", err)
			s.closeConn(conn, websocket.CloseInternalServerErr, "journal read failed")
			return
		}
		for _, rec := range records {
			if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
				return
			}
			if err := conn.WriteJSON(rec); err != nil {
				s.log.Debug("Event stream client dropped", "err", err)
				return
			}
			from = rec.Seq + 1
		}
		if len(records) == streamBatchSize {
			continue
		}
		select {
		case <-s.closed:
			s.closeConn(conn, websocket.CloseGoingAway, "server stopping")
			return
		case <-gone:
			return
		case <-ticker.C:
		}
	}
}

func (s *EventStream) closeConn(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

// Close ends all open streams.
func (s *EventStream) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
}
