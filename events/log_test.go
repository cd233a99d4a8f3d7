package events

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	assetDAI = common.HexToAddress("0x00000000000000000000000000000000000000A1")
	assetXTZ = common.HexToAddress("0x00000000000000000000000000000000000000A2")
	alice    = common.HexToAddress("0x0000000000000000000000000000000000000AaA")
)

func appendDeposit(l *Log, asset common.Address, amount int64) *Event {
	return l.Append(&Event{
		Type:      TypeDeposit,
		Timestamp: 1000,
		Asset:     asset,
		Account:   alice,
		Amount:    big.NewInt(amount),
	})
}

func TestLog_AppendAssignsSequence(t *testing.T) {
	l := NewLog()

	first := appendDeposit(l, assetDAI, 100)
	second := appendDeposit(l, assetXTZ, 200)

	assert.Equal(t, uint64(1), first.Sequence)
	assert.Equal(t, uint64(2), second.Sequence)
	assert.Equal(t, 2, l.Len())
}

func TestLog_EntriesAreImmutable(t *testing.T) {
	l := NewLog()
	src := &Event{Type: TypeDeposit, Asset: assetDAI, Account: alice, Amount: big.NewInt(100)}
	l.Append(src)

	// neither the caller's event nor a returned copy can alter the log
	src.Amount.SetInt64(-1)
	got := l.All()
	require.Len(t, got, 1)
	assert.Equal(t, int64(100), got[0].Amount.Int64())

	got[0].Amount.SetInt64(7)
	assert.Equal(t, int64(100), l.All()[0].Amount.Int64())
}

func TestLog_Filters(t *testing.T) {
	l := NewLog()
	l.Append(&Event{Type: TypePoolCreated, Asset: assetDAI, Symbol: "DAI"})
	l.Append(&Event{Type: TypePoolCreated, Asset: assetXTZ, Symbol: "XTZ"})
	appendDeposit(l, assetDAI, 100)

	t.Run("ByType", func(t *testing.T) {
		created := l.ByType(TypePoolCreated)
		require.Len(t, created, 2)
		// pool discovery: asset + symbol come straight off the event
		assert.Equal(t, "DAI", created[0].Symbol)
		assert.Equal(t, "XTZ", created[1].Symbol)
	})

	t.Run("ByAsset", func(t *testing.T) {
		dai := l.ByAsset(assetDAI)
		require.Len(t, dai, 2)
		assert.Equal(t, TypePoolCreated, dai[0].Type)
		assert.Equal(t, TypeDeposit, dai[1].Type)
	})

	t.Run("Since", func(t *testing.T) {
		assert.Len(t, l.Since(0), 3)
		tail := l.Since(2)
		require.Len(t, tail, 1)
		assert.Equal(t, uint64(3), tail[0].Sequence)
		assert.Nil(t, l.Since(99))
	})
}

func TestLog_Subscribe(t *testing.T) {
	l := NewLog()

	ch, cancel := l.Subscribe(2)
	appendDeposit(l, assetDAI, 100)

	got := <-ch
	assert.Equal(t, uint64(1), got.Sequence)
	assert.Equal(t, int64(100), got.Amount.Int64())

	t.Run("DropsWhenFull", func(t *testing.T) {
		appendDeposit(l, assetDAI, 1)
		appendDeposit(l, assetDAI, 2)
		appendDeposit(l, assetDAI, 3) // buffer of 2 is full; dropped

		assert.Equal(t, int64(1), (<-ch).Amount.Int64())
		assert.Equal(t, int64(2), (<-ch).Amount.Int64())
		select {
		case e := <-ch:
			t.Fatalf("expected drop, got event %d", e.Sequence)
		default:
		}
	})

	t.Run("CancelCloses", func(t *testing.T) {
		cancel()
		_, open := <-ch
		assert.False(t, open)
		cancel() // idempotent
		appendDeposit(l, assetDAI, 4)
	})
}
