package stake

import (
	"strconv"

	"github.com/holiman/uint256"
	ctrlertypes "github.com/milkyway-labs/lsd-go/ctrlers/types"
	"github.com/milkyway-labs/lsd-go/types"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
)

func (ctrler *LiquidStakeCtrler) execCircuitBreaker(ctx *ctrlertypes.ExecContext) xerrors.XError {
	if ctrler.state.Owner != ctx.Sender && !ctrler.config.IsMonitor(ctx.Sender) {
		return xerrors.ErrUnauthorized.Wrapf("sender %s is neither owner nor monitor", ctx.Sender)
	}

	ctrler.config.Stopped = true
	if xerr := ctrler.persistConfig(); xerr != nil {
		return xerr
	}

	ctx.EmitEvent("circuit_breaker", "sender", ctx.Sender.String())
	return nil
}

func (ctrler *LiquidStakeCtrler) execResumeContract(ctx *ctrlertypes.ExecContext, msg *ctrlertypes.MsgResumeContract) xerrors.XError {
	if xerr := ctrler.assertOwner(ctx.Sender); xerr != nil {
		return xerr
	}
	if !ctrler.config.Stopped {
		return xerrors.ErrNotStopped
	}
	if msg.TotalNativeToken == nil || msg.TotalLiquidStakeToken == nil || msg.TotalRewardAmount == nil {
		return xerrors.ErrInvalidQueryParams.Wrapf("resume requires all three totals")
	}

	st := ctrler.state
	st.TotalNativeToken = msg.TotalNativeToken.Clone()
	st.TotalLiquidStakeToken = msg.TotalLiquidStakeToken.Clone()
	st.TotalRewardAmount = msg.TotalRewardAmount.Clone()
	if xerr := ctrler.persistState(); xerr != nil {
		return xerr
	}

	ctrler.config.Stopped = false
	if xerr := ctrler.persistConfig(); xerr != nil {
		return xerr
	}

	ctx.EmitEvent("resume_contract",
		"total_native_token", st.TotalNativeToken.Dec(),
		"total_liquid_stake_token", st.TotalLiquidStakeToken.Dec(),
		"total_reward_amount", st.TotalRewardAmount.Dec(),
	)
	return nil
}

func (ctrler *LiquidStakeCtrler) execSlashBatches(ctx *ctrlertypes.ExecContext, msg *ctrlertypes.MsgSlashBatches) xerrors.XError {
	if xerr := ctrler.assertOwner(ctx.Sender); xerr != nil {
		return xerr
	}
	if !ctrler.config.Stopped {
		return xerrors.ErrNotStopped
	}

	if xerr := ctrler.batchCtrler.SlashCorrections(msg.NewAmounts); xerr != nil {
		return xerr
	}

	ctx.EmitEvent("slash_batches", "count", strconv.Itoa(len(msg.NewAmounts)))
	return nil
}

func (ctrler *LiquidStakeCtrler) execFeeWithdraw(ctx *ctrlertypes.ExecContext, msg *ctrlertypes.MsgFeeWithdraw) xerrors.XError {
	if xerr := ctrler.assertOwner(ctx.Sender); xerr != nil {
		return xerr
	}
	treasury := ctrler.config.ProtocolFee.TreasuryAddress
	if treasury.Empty() {
		return xerrors.ErrTreasuryNotConfigured
	}
	st := ctrler.state
	if msg.Amount == nil || msg.Amount.IsZero() || msg.Amount.Gt(st.TotalFees) {
		amt := "nil"
		if msg.Amount != nil {
			amt = msg.Amount.Dec()
		}
		return xerrors.ErrInsufficientFunds.Wrapf("requested: %s, accrued: %s", amt, st.TotalFees.Dec())
	}

	st.TotalFees = new(uint256.Int).Sub(st.TotalFees, msg.Amount)
	if xerr := ctrler.persistState(); xerr != nil {
		return xerr
	}

	coin := types.NewCoin(ctrler.config.ProtocolChain.IBCTokenDenom, msg.Amount)
	if xerr := ctx.Bank.Send(coin, ctx.Contract, treasury); xerr != nil {
		return xerr
	}

	ctx.EmitEvent("fee_withdraw", "amount", msg.Amount.Dec(), "treasury", treasury.String())
	return nil
}

func (ctrler *LiquidStakeCtrler) execAddValidator(ctx *ctrlertypes.ExecContext, msg *ctrlertypes.MsgAddValidator) xerrors.XError {
	if xerr := ctrler.assertOwner(ctx.Sender); xerr != nil {
		return xerr
	}
	cfg := ctrler.config

	val, xerr := types.ValidateAddress(msg.Validator, cfg.NativeChain.ValidatorPrefix)
	if xerr != nil {
		return xerr
	}
	if cfg.HasValidator(val) {
		return xerrors.ErrDuplicateValidator.Wrapf("validator: %s", val)
	}

	cfg.NativeChain.Validators = append(cfg.NativeChain.Validators, val)
	if xerr := ctrler.persistConfig(); xerr != nil {
		return xerr
	}

	ctx.EmitEvent("add_validator", "validator", val.String())
	return nil
}

func (ctrler *LiquidStakeCtrler) execRemoveValidator(ctx *ctrlertypes.ExecContext, msg *ctrlertypes.MsgRemoveValidator) xerrors.XError {
	if xerr := ctrler.assertOwner(ctx.Sender); xerr != nil {
		return xerr
	}
	cfg := ctrler.config

	val := types.Address(msg.Validator)
	idx := -1
	for i, v := range cfg.NativeChain.Validators {
		if v == val {
			idx = i
			break
		}
	}
	if idx < 0 {
		return xerrors.ErrValidatorNotFound.Wrapf("validator: %s", val)
	}
	if len(cfg.NativeChain.Validators) == 1 {
		return xerrors.ErrValidatorNotFound.Wrapf("cannot remove the last validator")
	}

	cfg.NativeChain.Validators = append(cfg.NativeChain.Validators[:idx], cfg.NativeChain.Validators[idx+1:]...)
	if xerr := ctrler.persistConfig(); xerr != nil {
		return xerr
	}

	ctx.EmitEvent("remove_validator", "validator", val.String())
	return nil
}

func (ctrler *LiquidStakeCtrler) execTransferOwnership(ctx *ctrlertypes.ExecContext, msg *ctrlertypes.MsgTransferOwnership) xerrors.XError {
	if xerr := ctrler.assertOwner(ctx.Sender); xerr != nil {
		return xerr
	}

	newOwner, xerr := types.ValidateAddress(msg.NewOwner, ctrler.config.ProtocolChain.AccountPrefix)
	if xerr != nil {
		return xerr
	}

	st := ctrler.state
	st.PendingOwner = newOwner
	st.OwnerTransferMinTime = ctx.BlockTime + ctrlertypes.OwnerTransferMinDelay
	if xerr := ctrler.persistState(); xerr != nil {
		return xerr
	}

	ctx.EmitEvent("transfer_ownership",
		"pending_owner", newOwner.String(),
		"min_time", strconv.FormatInt(st.OwnerTransferMinTime, 10),
	)
	return nil
}

func (ctrler *LiquidStakeCtrler) execAcceptOwnership(ctx *ctrlertypes.ExecContext) xerrors.XError {
	st := ctrler.state
	if st.PendingOwner.Empty() {
		return xerrors.ErrNoPendingOwner
	}
	if ctx.Sender != st.PendingOwner {
		return xerrors.ErrUnauthorized.Wrapf("sender %s is not the pending owner", ctx.Sender)
	}
	if ctx.BlockTime < st.OwnerTransferMinTime {
		return xerrors.ErrOwnershipTransferNotReady.Wrapf("claimable at %d, now %d", st.OwnerTransferMinTime, ctx.BlockTime)
	}

	st.Owner = st.PendingOwner
	st.PendingOwner = ""
	st.OwnerTransferMinTime = 0
	if xerr := ctrler.persistState(); xerr != nil {
		return xerr
	}

	ctx.EmitEvent("accept_ownership", "owner", st.Owner.String())
	return nil
}

func (ctrler *LiquidStakeCtrler) execRevokeOwnershipTransfer(ctx *ctrlertypes.ExecContext) xerrors.XError {
	if xerr := ctrler.assertOwner(ctx.Sender); xerr != nil {
		return xerr
	}
	st := ctrler.state
	if st.PendingOwner.Empty() {
		return xerrors.ErrNoPendingOwner
	}

	st.PendingOwner = ""
	st.OwnerTransferMinTime = 0
	if xerr := ctrler.persistState(); xerr != nil {
		return xerr
	}

	ctx.EmitEvent("revoke_ownership_transfer", "owner", st.Owner.String())
	return nil
}

func (ctrler *LiquidStakeCtrler) execRecoverPackets(ctx *ctrlertypes.ExecContext, msg *ctrlertypes.MsgRecoverPackets) xerrors.XError {
	cfg := ctrler.config

	receiver, xerr := types.ValidateAddress(msg.Receiver, cfg.NativeChain.AccountPrefix)
	if xerr != nil {
		if receiver, xerr = types.ValidateAddress(msg.Receiver, cfg.ProtocolChain.AccountPrefix); xerr != nil {
			return xerrors.ErrInvalidReceiver.Wrapf("receiver %s matches neither chain prefix", msg.Receiver)
		}
	}

	if xerr := ctrler.transferCtrler.Recover(ctx, cfg.ProtocolChain.IBCChannelID, receiver, msg.SelectedPackets, msg.PageSize); xerr != nil {
		return xerr
	}

	ctx.EmitEvent("recover_packets", "receiver", receiver.String())
	return nil
}

func (ctrler *LiquidStakeCtrler) execUpdateConfig(ctx *ctrlertypes.ExecContext, msg *ctrlertypes.MsgUpdateConfig) xerrors.XError {
	if xerr := ctrler.assertOwner(ctx.Sender); xerr != nil {
		return xerr
	}
	cfg := ctrler.config

	if msg.BatchPeriod != nil {
		cfg.BatchPeriod = *msg.BatchPeriod
	}
	if msg.UnbondingPeriod != nil {
		cfg.NativeChain.UnbondingPeriod = *msg.UnbondingPeriod
	}
	if msg.MinimumLiquidStakeAmount != nil {
		cfg.ProtocolChain.MinimumLiquidStakeAmount = msg.MinimumLiquidStakeAmount.Clone()
	}
	if msg.Monitors != nil {
		monitors := make([]types.Address, 0, len(*msg.Monitors))
		for _, m := range *msg.Monitors {
			monitors = append(monitors, types.Address(m))
		}
		cfg.Monitors = monitors
	}
	if msg.TreasuryAddress != nil {
		cfg.ProtocolFee.TreasuryAddress = types.Address(*msg.TreasuryAddress)
	}
	if msg.DaoTreasuryFee != nil {
		cfg.ProtocolFee.DaoTreasuryFee = *msg.DaoTreasuryFee
	}
	if msg.OracleAddress != nil {
		cfg.ProtocolChain.OracleAddress = types.Address(*msg.OracleAddress)
	}

	if xerr := cfg.Validate(); xerr != nil {
		return xerr
	}
	if xerr := ctrler.persistConfig(); xerr != nil {
		return xerr
	}

	ctx.EmitEvent("update_config", "sender", ctx.Sender.String())
	return nil
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
