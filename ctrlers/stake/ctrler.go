package stake

import (
	"sync"

	"github.com/milkyway-labs/lsd-go/ctrlers/batch"
	"github.com/milkyway-labs/lsd-go/ctrlers/transfer"
	ctrlertypes "github.com/milkyway-labs/lsd-go/ctrlers/types"
	"github.com/milkyway-labs/lsd-go/ledger"
	"github.com/milkyway-labs/lsd-go/types"
	"github.com/milkyway-labs/lsd-go/types/bytes"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
	"github.com/tendermint/tendermint/crypto/tmhash"
	"github.com/tendermint/tendermint/libs/log"
)

// LiquidStakeCtrler orchestrates the liquid staking operations over the
// batch manager and the transfer tracker. Every exported entry point is
// one atomic state transition; the host applies them sequentially.
type LiquidStakeCtrler struct {
	configLedger *ledger.SimpleLedger[*ctrlertypes.Config]
	stateLedger  *ledger.SimpleLedger[*ctrlertypes.State]

	config *ctrlertypes.Config
	state  *ctrlertypes.State

	batchCtrler    *batch.BatchCtrler
	transferCtrler *transfer.TransferCtrler

	logger log.Logger
	mtx    sync.RWMutex
}

func NewLiquidStakeCtrler(dbDir string, logger log.Logger) (*LiquidStakeCtrler, xerrors.XError) {
	configLedger, xerr := ledger.NewSimpleLedger[*ctrlertypes.Config]("config", dbDir, 1, func() *ctrlertypes.Config { return &ctrlertypes.Config{} })
	if xerr != nil {
		return nil, xerr
	}
	stateLedger, xerr := ledger.NewSimpleLedger[*ctrlertypes.State]("state", dbDir, 1, func() *ctrlertypes.State { return &ctrlertypes.State{} })
	if xerr != nil {
		return nil, xerr
	}
	batchCtrler, xerr := batch.NewBatchCtrler(dbDir, logger)
	if xerr != nil {
		return nil, xerr
	}
	transferCtrler, xerr := transfer.NewTransferCtrler(dbDir, logger)
	if xerr != nil {
		return nil, xerr
	}

	ctrler := &LiquidStakeCtrler{
		configLedger:   configLedger,
		stateLedger:    stateLedger,
		batchCtrler:    batchCtrler,
		transferCtrler: transferCtrler,
		logger:         logger.With("module", "lsd_LiquidStakeCtrler"),
	}

	zeroKey := ledger.ToLedgerKey(bytes.ZeroBytes(ledger.LEDGERKEYSIZE))
	if cfg, xerr := configLedger.Get(zeroKey); xerr == nil {
		ctrler.config = cfg
	} else if !xerr.Contains(xerrors.ErrNotFoundResult) {
		return nil, xerr
	}
	if st, xerr := stateLedger.Get(zeroKey); xerr == nil {
		ctrler.state = st
	} else if !xerr.Contains(xerrors.ErrNotFoundResult) {
		return nil, xerr
	}

	return ctrler, nil
}

// InitLedger installs the validated config, registers the liquid token
// denom and opens batch 1.
func (ctrler *LiquidStakeCtrler) InitLedger(ctx *ctrlertypes.ExecContext, msg *ctrlertypes.InitMsg) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	if ctrler.config != nil {
		return xerrors.NewOrdinary("already initialized")
	}

	denom, xerr := ctx.TokenFactory.CreateDenom(msg.LiquidStakeTokenSubdenom)
	if xerr != nil {
		return xerr
	}

	var monitors []types.Address
	for _, m := range msg.Monitors {
		monitors = append(monitors, types.Address(m))
	}

	cfg := &ctrlertypes.Config{
		NativeChain:           msg.NativeChain,
		ProtocolChain:         msg.ProtocolChain,
		ProtocolFee:           msg.ProtocolFee,
		LiquidStakeTokenDenom: denom,
		BatchPeriod:           msg.BatchPeriod,
		Monitors:              monitors,
	}
	if xerr := cfg.Validate(); xerr != nil {
		return xerr
	}

	owner, xerr := types.ValidateAddress(ctx.Sender.String(), cfg.ProtocolChain.AccountPrefix)
	if xerr != nil {
		return xerr
	}

	if xerr := ctrler.configLedger.Set(cfg); xerr != nil {
		return xerr
	}
	st := ctrlertypes.NewState(owner)
	if xerr := ctrler.stateLedger.Set(st); xerr != nil {
		return xerr
	}
	if xerr := ctrler.batchCtrler.InitLedger(ctx.BlockTime, cfg.BatchPeriod); xerr != nil {
		return xerr
	}

	ctrler.config = cfg
	ctrler.state = st
	return nil
}

// execSnapshot captures the uncommitted buffers of every ledger touched
// by an operation so that a failed operation can be rolled back whole.
type execSnapshot struct {
	config    *ledger.Snapshot[*ctrlertypes.Config]
	state     *ledger.Snapshot[*ctrlertypes.State]
	batches   *batch.Snapshot
	transfers *transfer.Snapshot
}

func (ctrler *LiquidStakeCtrler) snapshot() (*execSnapshot, xerrors.XError) {
	snap := &execSnapshot{}
	var xerr xerrors.XError
	if snap.config, xerr = ctrler.configLedger.Snapshot(); xerr != nil {
		return nil, xerr
	}
	if snap.state, xerr = ctrler.stateLedger.Snapshot(); xerr != nil {
		return nil, xerr
	}
	if snap.batches, xerr = ctrler.batchCtrler.Snapshot(); xerr != nil {
		return nil, xerr
	}
	if snap.transfers, xerr = ctrler.transferCtrler.Snapshot(); xerr != nil {
		return nil, xerr
	}
	return snap, nil
}

func (ctrler *LiquidStakeCtrler) revertToSnapshot(snap *execSnapshot) {
	ctrler.configLedger.RevertToSnapshot(snap.config)
	ctrler.stateLedger.RevertToSnapshot(snap.state)
	ctrler.batchCtrler.RevertToSnapshot(snap.batches)
	ctrler.transferCtrler.RevertToSnapshot(snap.transfers)

	// the cached singletons may have been mutated in place before the
	// operation failed, reload them from the reverted buffers
	zeroKey := ledger.ToLedgerKey(bytes.ZeroBytes(ledger.LEDGERKEYSIZE))
	if cfg, xerr := ctrler.configLedger.Get(zeroKey); xerr == nil {
		ctrler.config = cfg
	}
	if st, xerr := ctrler.stateLedger.Get(zeroKey); xerr == nil {
		ctrler.state = st
	}
}

// Execute dispatches one operation. Exactly one field of msg must be set.
// A failed operation reverts every buffered mutation it made, so the
// caller may retry it later.
func (ctrler *LiquidStakeCtrler) Execute(ctx *ctrlertypes.ExecContext, msg *ctrlertypes.ExecuteMsg) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	if ctrler.config == nil || ctrler.state == nil {
		return xerrors.NewOrdinary("not initialized")
	}

	snap, xerr := ctrler.snapshot()
	if xerr != nil {
		return xerr
	}
	if xerr := ctrler.execute(ctx, msg); xerr != nil {
		ctrler.revertToSnapshot(snap)
		return xerr
	}
	return nil
}

func (ctrler *LiquidStakeCtrler) execute(ctx *ctrlertypes.ExecContext, msg *ctrlertypes.ExecuteMsg) xerrors.XError {
	switch {
	case msg.LiquidStake != nil:
		return ctrler.execLiquidStake(ctx, msg.LiquidStake)
	case msg.LiquidUnstake != nil:
		return ctrler.execLiquidUnstake(ctx)
	case msg.SubmitBatch != nil:
		return ctrler.execSubmitBatch(ctx)
	case msg.ReceiveUnstakedTokens != nil:
		return ctrler.execReceiveUnstakedTokens(ctx, msg.ReceiveUnstakedTokens)
	case msg.Withdraw != nil:
		return ctrler.execWithdraw(ctx, msg.Withdraw)
	case msg.ReceiveRewards != nil:
		return ctrler.execReceiveRewards(ctx)
	case msg.CircuitBreaker != nil:
		return ctrler.execCircuitBreaker(ctx)
	case msg.ResumeContract != nil:
		return ctrler.execResumeContract(ctx, msg.ResumeContract)
	case msg.SlashBatches != nil:
		return ctrler.execSlashBatches(ctx, msg.SlashBatches)
	case msg.FeeWithdraw != nil:
		return ctrler.execFeeWithdraw(ctx, msg.FeeWithdraw)
	case msg.AddValidator != nil:
		return ctrler.execAddValidator(ctx, msg.AddValidator)
	case msg.RemoveValidator != nil:
		return ctrler.execRemoveValidator(ctx, msg.RemoveValidator)
	case msg.TransferOwnership != nil:
		return ctrler.execTransferOwnership(ctx, msg.TransferOwnership)
	case msg.AcceptOwnership != nil:
		return ctrler.execAcceptOwnership(ctx)
	case msg.RevokeOwnershipTransfer != nil:
		return ctrler.execRevokeOwnershipTransfer(ctx)
	case msg.RecoverPackets != nil:
		return ctrler.execRecoverPackets(ctx, msg.RecoverPackets)
	case msg.UpdateConfig != nil:
		return ctrler.execUpdateConfig(ctx, msg.UpdateConfig)
	default:
		return xerrors.NewOrdinary("empty execute message")
	}
}

func (ctrler *LiquidStakeCtrler) assertNotStopped() xerrors.XError {
	if ctrler.config.Stopped {
		return xerrors.ErrContractStopped
	}
	return nil
}

func (ctrler *LiquidStakeCtrler) assertOwner(sender types.Address) xerrors.XError {
	if ctrler.state.Owner != sender {
		return xerrors.ErrUnauthorized.Wrapf("sender %s is not the owner", sender)
	}
	return nil
}

func (ctrler *LiquidStakeCtrler) persistState() xerrors.XError {
	return ctrler.stateLedger.Set(ctrler.state)
}

func (ctrler *LiquidStakeCtrler) persistConfig() xerrors.XError {
	return ctrler.configLedger.Set(ctrler.config)
}

func (ctrler *LiquidStakeCtrler) Commit() ([]byte, int64, xerrors.XError) {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	h0, _, xerr := ctrler.configLedger.Commit()
	if xerr != nil {
		return nil, -1, xerr
	}
	h1, _, xerr := ctrler.stateLedger.Commit()
	if xerr != nil {
		return nil, -1, xerr
	}
	h2, _, xerr := ctrler.batchCtrler.Commit()
	if xerr != nil {
		return nil, -1, xerr
	}
	h3, ver, xerr := ctrler.transferCtrler.Commit()
	if xerr != nil {
		return nil, -1, xerr
	}

	hash := tmhash.Sum(append(append(append(h0, h1...), h2...), h3...))
	ctrler.logger.Debug("committed", "hash", bytes.HexBytes(hash), "version", ver)
	return hash, ver, nil
}

func (ctrler *LiquidStakeCtrler) Close() xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	if xerr := ctrler.configLedger.Close(); xerr != nil {
		return xerr
	}
	if xerr := ctrler.stateLedger.Close(); xerr != nil {
		return xerr
	}
	if xerr := ctrler.batchCtrler.Close(); xerr != nil {
		return xerr
	}
	return ctrler.transferCtrler.Close()
}

var _ ctrlertypes.ILedgerHandler = (*LiquidStakeCtrler)(nil)
