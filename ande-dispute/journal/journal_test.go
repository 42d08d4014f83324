package journal

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/ande-labs/ande/ande-dispute/event"
	"github.com/ande-labs/ande/ande-dispute/types"
	"github.com/ande-labs/ande/ande-service/eth"
	"github.com/ande-labs/ande/ande-service/testlog"
)

func testEvents() []event.Event {
	game := common.Address{0x9a}
	return []event.Event{
		event.ImplementationSetEvent{GameType: types.CannonGameType, Impl: common.Address{0x7e}},
		event.GameCreatedEvent{Game: game, GameType: types.CannonGameType, RootClaim: common.Hash{0x01}, Creator: common.Address{0xc0}, Bond: eth.Ether(1)},
		event.ClaimAddedEvent{Game: game, GameType: types.CannonGameType, Index: 1, Position: types.RootPosition().Attack(), IsAttack: true, Bond: eth.GWei(5)},
		event.GameStatusChangedEvent{Game: game, GameType: types.CannonGameType, Status: types.GameStatusChallengerWon, Payout: eth.Ether(1)},
	}
}

func testJournal(t *testing.T, open func() Journal) {
	j := open()
	for i, ev := range testEvents() {
		rec, err := j.Append(ev)
		require.NoError(t, err)
		require.Equal(t, uint64(i+1), rec.Seq)
		require.Equal(t, ev.String(), rec.Kind)
	}

	all, err := j.Range(0, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, "implementation-set", all[0].Kind)
	require.Equal(t, "game-status-changed", all[3].Kind)

	var added event.ClaimAddedEvent
	require.NoError(t, json.Unmarshal(all[2].Data, &added))
	require.Equal(t, testEvents()[2], added)

	window, err := j.Range(2, 2)
	require.NoError(t, err)
	require.Equal(t, all[1:3], window)

	tail, err := j.Range(4, 10)
	require.NoError(t, err)
	require.Equal(t, all[3:], tail)

	none, err := j.Range(5, 0)
	require.NoError(t, err)
	require.Empty(t, none)

	require.NoError(t, j.Close())
	_, err = j.Append(testEvents()[0])
	require.ErrorIs(t, err, ErrClosed)
	_, err = j.Range(0, 0)
	require.ErrorIs(t, err, ErrClosed)
}

func TestMemory(t *testing.T) {
	testJournal(t, func() Journal { return NewMemory() })
}

func TestDB(t *testing.T) {
	fs := vfs.NewMem()
	testJournal(t, func() Journal {
		db, err := OpenDB(testlog.Logger(t, slog.LevelInfo), "journal", fs)
		require.NoError(t, err)
		return db
	})
}

func TestDBRecoversSequence(t *testing.T) {
	logger := testlog.Logger(t, slog.LevelInfo)
	fs := vfs.NewMem()
	db, err := OpenDB(logger, "journal", fs)
	require.NoError(t, err)
	for _, ev := range testEvents()[:2] {
		_, err := db.Append(ev)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	db, err = OpenDB(logger, "journal", fs)
	require.NoError(t, err)
	defer db.Close()
	rec, err := db.Append(testEvents()[2])
	require.NoError(t, err)
	require.Equal(t, uint64(3), rec.Seq)
	all, err := db.Range(0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

type failingJournal struct {
	Memory
}

func (f *failingJournal) Append(ev event.Event) (Record, error) {
	return Record{}, ErrClosed
}

func TestRecorder(t *testing.T) {
	logger := testlog.Logger(t, slog.LevelDebug)
	j := NewMemory()
	bus := event.NewBus(logger)
	bus.AddDeriver(NewRecorder(logger, j))
	for _, ev := range testEvents() {
		bus.Emit(ev)
	}
	all, err := j.Range(0, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)

	// Journal failures are logged, not propagated.
	require.True(t, NewRecorder(logger, &failingJournal{}).OnEvent(testEvents()[0]))
}
