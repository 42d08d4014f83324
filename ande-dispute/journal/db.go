package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ande-labs/ande/ande-dispute/event"
)

var (
	recordPrefix = []byte("ev/")
	// recordEnd is the first key after all record keys.
	recordEnd = []byte("ev0")
)

func recordKey(seq uint64) []byte {
	key := make([]byte, len(recordPrefix)+8)
	copy(key, recordPrefix)
	binary.BigEndian.PutUint64(key[len(recordPrefix):], seq)
	return key
}

func seqFromKey(key []byte) (uint64, error) {
	if len(key) != len(recordPrefix)+8 {
		return 0, fmt.Errorf("malformed journal key %x", key)
	}
	return binary.BigEndian.Uint64(key[len(recordPrefix):]), nil
}

// DB is a journal persisted in a pebble database.
type DB struct {
	log log.Logger

	mu   sync.Mutex
	db   *pebble.DB
	next uint64
}

var _ Journal = (*DB)(nil)

// OpenDB opens or creates the journal in dir. A nil fs uses the host filesystem.
func OpenDB(logger log.Logger, dir string, fs vfs.FS) (*DB, error) {
	if fs == nil {
		fs = vfs.Default
	}
	db, err := pebble.Open(dir, &pebble.Options{FS: fs})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal db at %q: %w", dir, err)
	}
	last, err := lastSeq(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to recover journal head: %w", err)
	}
	logger.Info("Opened event journal", "dir", dir, "records", last)
	return &DB{log: logger, db: db, next: last + 1}, nil
}

func lastSeq(db *pebble.DB) (uint64, error) {
	iter, err := db.NewIter(&pebble.IterOptions{LowerBound: recordPrefix, UpperBound: recordEnd})
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	if !iter.Last() {
		return 0, iter.Error()
	}
	return seqFromKey(iter.Key())
}

func (d *DB) Append(ev event.Event) (Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return Record{}, ErrClosed
	}
	rec, err := newRecord(d.next, ev)
	if err != nil {
		return Record{}, err
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode record %d: %w", rec.Seq, err)
	}
	if err := d.db.Set(recordKey(rec.Seq), value, pebble.Sync); err != nil {
		return Record{}, fmt.Errorf("failed to write record %d: %w", rec.Seq, err)
	}
	d.next++
	return rec, nil
}

func (d *DB) Range(from uint64, limit uint64) ([]Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return nil, ErrClosed
	}
	iter, err := d.db.NewIter(&pebble.IterOptions{LowerBound: recordKey(from), UpperBound: recordEnd})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []Record
	for valid := iter.First(); valid; valid = iter.Next() {
		var rec Record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, fmt.Errorf("corrupt journal record at key %x: %w", iter.Key(), err)
		}
		out = append(out, rec)
		if limit != 0 && uint64(len(out)) >= limit {
			break
		}
	}
	return out, iter.Error()
}

func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}
