package transfer

import (
	"testing"

	"github.com/holiman/uint256"
	ctrlertypes "github.com/milkyway-labs/lsd-go/ctrlers/types"
	"github.com/milkyway-labs/lsd-go/ledger"
	"github.com/milkyway-labs/lsd-go/types"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
	"github.com/stretchr/testify/require"
	tmlog "github.com/tendermint/tendermint/libs/log"
)

type dispatchedCall struct {
	dispatchID  uint64
	channelID   string
	token       types.Coin
	receiver    types.Address
	timeoutTime int64
}

type mockTransferPort struct {
	calls []dispatchedCall
	fail  bool
}

func (p *mockTransferPort) DispatchTransfer(dispatchID uint64, channelID string, token types.Coin, sender, receiver types.Address, timeoutTime int64) xerrors.XError {
	if p.fail {
		return xerrors.ErrFailedIBCTransfer.Wrapf("port down")
	}
	p.calls = append(p.calls, dispatchedCall{dispatchID, channelID, token, receiver, timeoutTime})
	return nil
}

var _ ctrlertypes.ITransferPort = (*mockTransferPort)(nil)

func newTestTransferCtrler(t *testing.T) *TransferCtrler {
	ctrler, xerr := NewTransferCtrler(t.TempDir(), tmlog.NewNopLogger())
	require.NoError(t, xerr)
	t.Cleanup(func() { _ = ctrler.Close() })
	return ctrler
}

func newTestCtx(port *mockTransferPort) *ctrlertypes.ExecContext {
	return &ctrlertypes.ExecContext{
		Sender:       "milk1sender",
		Contract:     "milk1contract",
		BlockTime:    1_700_000_000,
		TransferPort: port,
	}
}

func TestTransferCtrler_DispatchReplyLifecycle(t *testing.T) {
	ctrler := newTestTransferCtrler(t)
	port := &mockTransferPort{}
	ctx := newTestCtx(port)

	token := types.NewCoin("ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2", uint256.NewInt(1000))
	id, xerr := ctrler.Dispatch(ctx, "channel-0", token, "celestia1alice")
	require.NoError(t, xerr)
	require.Len(t, port.calls, 1)
	require.Equal(t, id, port.calls[0].dispatchID)
	require.Equal(t, ctx.BlockTime+TransferTimeout, port.calls[0].timeoutTime)

	// waiting record exists
	w, xerr := ctrler.waitingLedger.Get(ledger.ToLedgerKeyUint64(id))
	require.NoError(t, xerr)
	require.Equal(t, token, w.Token)

	// reply for an unknown dispatch id fails
	xerr = ctrler.HandleReply(id+1, 7, true)
	require.Error(t, xerr)
	require.True(t, xerr.Contains(xerrors.ErrFailedIBCTransfer))

	require.NoError(t, ctrler.HandleReply(id, 7, true))

	// waiting record consumed, in-flight record created
	_, xerr = ctrler.waitingLedger.Get(ledger.ToLedgerKeyUint64(id))
	require.Error(t, xerr)
	tr, xerr := ctrler.inflightLedger.Get(ledger.ToLedgerKeyUint64(7))
	require.NoError(t, xerr)
	require.Equal(t, PACKET_SENT, tr.Status)
	require.Equal(t, uint64(7), ctrler.meta().MaxSequence)
}

func TestTransferCtrler_FailedReplyDropsRecord(t *testing.T) {
	ctrler := newTestTransferCtrler(t)
	port := &mockTransferPort{}
	ctx := newTestCtx(port)

	token := types.NewCoin("ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2", uint256.NewInt(5))
	id, xerr := ctrler.Dispatch(ctx, "channel-0", token, "celestia1alice")
	require.NoError(t, xerr)

	xerr = ctrler.HandleReply(id, 0, false)
	require.Error(t, xerr)
	require.True(t, xerr.Contains(xerrors.ErrFailedIBCTransfer))

	// record gone either way, nothing in flight
	_, xerr = ctrler.waitingLedger.Get(ledger.ToLedgerKeyUint64(id))
	require.Error(t, xerr)
	count := 0
	require.NoError(t, ctrler.inflightLedger.IterateAllItems(func(*InFlightTransfer) xerrors.XError {
		count++
		return nil
	}))
	require.Zero(t, count)
}

func TestTransferCtrler_Resolutions(t *testing.T) {
	ctrler := newTestTransferCtrler(t)
	port := &mockTransferPort{}
	ctx := newTestCtx(port)

	token := types.NewCoin("ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2", uint256.NewInt(10))
	for seq := uint64(1); seq <= 3; seq++ {
		id, xerr := ctrler.Dispatch(ctx, "channel-0", token, "celestia1alice")
		require.NoError(t, xerr)
		require.NoError(t, ctrler.HandleReply(id, seq, true))
	}

	// ack success removes
	require.NoError(t, ctrler.HandleResolved(1, RESOLVE_ACK_SUCCESS))
	_, xerr := ctrler.inflightLedger.Get(ledger.ToLedgerKeyUint64(1))
	require.Error(t, xerr)

	// ack failure and timeout mark for recovery
	require.NoError(t, ctrler.HandleResolved(2, RESOLVE_ACK_FAILURE))
	tr, xerr := ctrler.inflightLedger.Get(ledger.ToLedgerKeyUint64(2))
	require.NoError(t, xerr)
	require.Equal(t, PACKET_ACK_FAILURE, tr.Status)

	require.NoError(t, ctrler.HandleResolved(3, RESOLVE_TIMEOUT))
	tr, xerr = ctrler.inflightLedger.Get(ledger.ToLedgerKeyUint64(3))
	require.NoError(t, xerr)
	require.Equal(t, PACKET_TIMED_OUT, tr.Status)

	// late notifications are ignored, state unchanged
	require.NoError(t, ctrler.HandleResolved(2, RESOLVE_TIMEOUT))
	tr, xerr = ctrler.inflightLedger.Get(ledger.ToLedgerKeyUint64(2))
	require.NoError(t, xerr)
	require.Equal(t, PACKET_ACK_FAILURE, tr.Status)

	// unknown sequence is not an error
	require.NoError(t, ctrler.HandleResolved(99, RESOLVE_TIMEOUT))
}

func TestTransferCtrler_RecoverSelected(t *testing.T) {
	ctrler := newTestTransferCtrler(t)
	port := &mockTransferPort{}
	ctx := newTestCtx(port)

	denom := "ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2"
	alice := types.Address("celestia1alice")

	for seq := uint64(1); seq <= 3; seq++ {
		id, xerr := ctrler.Dispatch(ctx, "channel-0", types.NewCoin(denom, uint256.NewInt(seq*100)), alice)
		require.NoError(t, xerr)
		require.NoError(t, ctrler.HandleReply(id, seq, true))
		require.NoError(t, ctrler.HandleResolved(seq, RESOLVE_TIMEOUT))
	}

	// duplicated selection collapses to one recovery per sequence
	port.calls = nil
	xerr := ctrler.Recover(ctx, "channel-0", alice, []uint64{1, 2, 3, 3, 3, 2, 1}, 0)
	require.NoError(t, xerr)

	// one aggregated redispatch for the single denom
	require.Len(t, port.calls, 1)
	require.Equal(t, uint256.NewInt(600), port.calls[0].token.Amount)
	require.Equal(t, ctrler.meta().MaxSequence+recoverDispatchOffset+1, port.calls[0].dispatchID)

	// records are consumed
	for seq := uint64(1); seq <= 3; seq++ {
		_, xerr := ctrler.inflightLedger.Get(ledger.ToLedgerKeyUint64(seq))
		require.Error(t, xerr)
	}

	// nothing left to recover
	xerr = ctrler.Recover(ctx, "channel-0", alice, nil, 0)
	require.Error(t, xerr)
	require.True(t, xerr.Contains(xerrors.ErrNoInflightPackets))
}

func TestTransferCtrler_RecoverGuards(t *testing.T) {
	ctrler := newTestTransferCtrler(t)
	port := &mockTransferPort{}
	ctx := newTestCtx(port)

	denom := "ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2"

	id, xerr := ctrler.Dispatch(ctx, "channel-0", types.NewCoin(denom, uint256.NewInt(100)), "celestia1alice")
	require.NoError(t, xerr)
	require.NoError(t, ctrler.HandleReply(id, 1, true))

	// still sent, not recoverable
	xerr = ctrler.Recover(ctx, "channel-0", "celestia1alice", []uint64{1}, 0)
	require.Error(t, xerr)
	require.True(t, xerr.Contains(xerrors.ErrInvalidPacketStatus))

	require.NoError(t, ctrler.HandleResolved(1, RESOLVE_TIMEOUT))

	// wrong receiver
	xerr = ctrler.Recover(ctx, "channel-0", "celestia1bob", []uint64{1}, 0)
	require.Error(t, xerr)
	require.True(t, xerr.Contains(xerrors.ErrInvalidReceiver))

	// unknown sequence
	xerr = ctrler.Recover(ctx, "channel-0", "celestia1alice", []uint64{42}, 0)
	require.Error(t, xerr)
	require.True(t, xerr.Contains(xerrors.ErrNoInflightPackets))
}

func TestTransferCtrler_MigrateLegacyRecords(t *testing.T) {
	ctrler := newTestTransferCtrler(t)

	denom := "ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2"
	for seq := uint64(1); seq <= 5; seq++ {
		require.NoError(t, ctrler.legacyLedger.Set(&legacyTransfer{
			Sequence: seq,
			Denom:    denom,
			Amount:   uint256.NewInt(seq),
			Receiver: "celestia1alice",
		}))
	}

	progress, xerr := ctrler.MigrateLegacyRecords(2)
	require.NoError(t, xerr)
	require.False(t, progress.Done)
	require.Equal(t, uint64(2), progress.Migrated)
	require.Equal(t, uint64(2), progress.LastSequence)

	progress, xerr = ctrler.MigrateLegacyRecords(2)
	require.NoError(t, xerr)
	require.False(t, progress.Done)
	require.Equal(t, uint64(4), progress.Migrated)

	progress, xerr = ctrler.MigrateLegacyRecords(2)
	require.NoError(t, xerr)
	require.True(t, progress.Done)
	require.Equal(t, uint64(5), progress.Migrated)

	// migrated records carry sent status under their old sequence
	tr, xerr := ctrler.inflightLedger.Get(ledger.ToLedgerKeyUint64(3))
	require.NoError(t, xerr)
	require.Equal(t, PACKET_SENT, tr.Status)
	require.Equal(t, uint256.NewInt(3), tr.Token.Amount)

	// done is sticky
	progress, xerr = ctrler.MigrateLegacyRecords(2)
	require.NoError(t, xerr)
	require.True(t, progress.Done)
}
