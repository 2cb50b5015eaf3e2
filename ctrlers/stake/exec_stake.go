package stake

import (
	"github.com/holiman/uint256"
	"github.com/milkyway-labs/lsd-go/ctrlers/accounting"
	ctrlertypes "github.com/milkyway-labs/lsd-go/ctrlers/types"
	"github.com/milkyway-labs/lsd-go/types"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
)

func (ctrler *LiquidStakeCtrler) execLiquidStake(ctx *ctrlertypes.ExecContext, msg *ctrlertypes.MsgLiquidStake) xerrors.XError {
	if xerr := ctrler.assertNotStopped(); xerr != nil {
		return xerr
	}
	cfg := ctrler.config
	st := ctrler.state

	amount, xerr := ctx.AttachedFund(cfg.ProtocolChain.IBCTokenDenom)
	if xerr != nil {
		return xerr
	}
	minimum := cfg.ProtocolChain.MinimumLiquidStakeAmount
	if amount.Lt(minimum) {
		return xerrors.ErrMinimumLiquidStakeAmount.Wrapf("minimum: %s, sent: %s", minimum.Dec(), amount.Dec())
	}

	// After slashing followed by full redemption no liquid token is left
	// to claim the remaining backing; it becomes fee revenue before any
	// new mint is computed.
	if st.TotalLiquidStakeToken.IsZero() && !st.TotalNativeToken.IsZero() {
		st.TotalFees = new(uint256.Int).Add(st.TotalFees, st.TotalNativeToken)
		st.TotalNativeToken = uint256.NewInt(0)
	}

	mint := accounting.ComputeMintAmount(st.TotalNativeToken, st.TotalLiquidStakeToken, amount)
	if mint.IsZero() {
		return xerrors.ErrMintError.Wrapf("deposit %s mints zero liquid tokens", amount.Dec())
	}
	if msg.MinMintAmount != nil && mint.Lt(msg.MinMintAmount) {
		return xerrors.ErrMintAmountMismatch.Wrapf("minimum: %s, computed: %s", msg.MinMintAmount.Dec(), mint.Dec())
	}

	mintTo := msg.MintTo
	if mintTo == "" {
		mintTo = ctx.Sender.String()
	}

	liquidToken := types.NewCoin(cfg.LiquidStakeTokenDenom, mint)
	if addr, xerr := types.ValidateAddress(mintTo, cfg.ProtocolChain.AccountPrefix); xerr == nil {
		if xerr := ctx.TokenFactory.Mint(liquidToken.Denom, liquidToken.Amount, addr); xerr != nil {
			return xerr
		}
	} else if addr, xerr := types.ValidateAddress(mintTo, cfg.NativeChain.AccountPrefix); xerr == nil {
		// mint at the contract, then hand the tokens off cross-chain
		if xerr := ctx.TokenFactory.Mint(liquidToken.Denom, liquidToken.Amount, ctx.Contract); xerr != nil {
			return xerr
		}
		if _, xerr := ctrler.transferCtrler.Dispatch(ctx, cfg.ProtocolChain.IBCChannelID, liquidToken, addr); xerr != nil {
			return xerr
		}
	} else {
		return xerrors.ErrInvalidAddress.Wrapf("mint_to %s matches neither chain prefix", mintTo)
	}

	st.TotalNativeToken = new(uint256.Int).Add(st.TotalNativeToken, amount)
	st.TotalLiquidStakeToken = new(uint256.Int).Add(st.TotalLiquidStakeToken, mint)
	if xerr := ctrler.persistState(); xerr != nil {
		return xerr
	}

	// forward the deposit to the staker on the native chain
	if _, xerr := ctrler.transferCtrler.Dispatch(ctx,
		cfg.ProtocolChain.IBCChannelID,
		types.NewCoin(cfg.ProtocolChain.IBCTokenDenom, amount),
		cfg.NativeChain.StakerAddress,
	); xerr != nil {
		return xerr
	}

	ctx.EmitEvent("liquid_stake",
		"sender", ctx.Sender.String(),
		"amount", amount.Dec(),
		"minted", mint.Dec(),
	)
	return nil
}

func (ctrler *LiquidStakeCtrler) execLiquidUnstake(ctx *ctrlertypes.ExecContext) xerrors.XError {
	if xerr := ctrler.assertNotStopped(); xerr != nil {
		return xerr
	}

	amount, xerr := ctx.AttachedFund(ctrler.config.LiquidStakeTokenDenom)
	if xerr != nil {
		return xerr
	}

	b, xerr := ctrler.batchCtrler.QueueUnstake(ctx.Sender, amount)
	if xerr != nil {
		return xerr
	}

	ctx.EmitEvent("liquid_unstake",
		"sender", ctx.Sender.String(),
		"amount", amount.Dec(),
		"batch_id", formatUint(b.ID),
	)
	return nil
}

func (ctrler *LiquidStakeCtrler) execSubmitBatch(ctx *ctrlertypes.ExecContext) xerrors.XError {
	if xerr := ctrler.assertNotStopped(); xerr != nil {
		return xerr
	}
	cfg := ctrler.config

	b, xerr := ctrler.batchCtrler.Submit(ctx.BlockTime, cfg.BatchPeriod, cfg.NativeChain.UnbondingPeriod, ctrler.state)
	if xerr != nil {
		return xerr
	}

	// the queued liquid tokens are held by the contract; burn them now
	if xerr := ctx.TokenFactory.Burn(cfg.LiquidStakeTokenDenom, b.BatchTotalLiquidStake, ctx.Contract); xerr != nil {
		return xerr
	}
	if xerr := ctrler.persistState(); xerr != nil {
		return xerr
	}

	ctx.EmitEvent("submit_batch",
		"batch_id", formatUint(b.ID),
		"batch_total", b.BatchTotalLiquidStake.Dec(),
		"expected_native_unstaked", b.ExpectedNativeUnstaked.Dec(),
	)
	return nil
}

func (ctrler *LiquidStakeCtrler) execReceiveUnstakedTokens(ctx *ctrlertypes.ExecContext, msg *ctrlertypes.MsgReceiveUnstakedTokens) xerrors.XError {
	if xerr := ctrler.assertNotStopped(); xerr != nil {
		return xerr
	}

	amount, xerr := ctx.AttachedFund(ctrler.config.ProtocolChain.IBCTokenDenom)
	if xerr != nil {
		return xerr
	}

	b, xerr := ctrler.batchCtrler.ReceiveUnstaked(msg.BatchID, amount)
	if xerr != nil {
		return xerr
	}

	ctx.EmitEvent("receive_unstaked_tokens",
		"batch_id", formatUint(b.ID),
		"received", amount.Dec(),
	)
	return nil
}

func (ctrler *LiquidStakeCtrler) execWithdraw(ctx *ctrlertypes.ExecContext, msg *ctrlertypes.MsgWithdraw) xerrors.XError {
	payout, xerr := ctrler.batchCtrler.Withdraw(msg.BatchID, ctx.Sender)
	if xerr != nil {
		return xerr
	}

	if !payout.IsZero() {
		coin := types.NewCoin(ctrler.config.ProtocolChain.IBCTokenDenom, payout)
		if xerr := ctx.Bank.Send(coin, ctx.Contract, ctx.Sender); xerr != nil {
			return xerr
		}
	}

	ctx.EmitEvent("withdraw",
		"sender", ctx.Sender.String(),
		"batch_id", formatUint(msg.BatchID),
		"amount", payout.Dec(),
	)
	return nil
}

func (ctrler *LiquidStakeCtrler) execReceiveRewards(ctx *ctrlertypes.ExecContext) xerrors.XError {
	if xerr := ctrler.assertNotStopped(); xerr != nil {
		return xerr
	}
	cfg := ctrler.config
	st := ctrler.state

	if st.TotalLiquidStakeToken.IsZero() {
		return xerrors.ErrNoLiquidStake
	}

	amount, xerr := ctx.AttachedFund(cfg.ProtocolChain.IBCTokenDenom)
	if xerr != nil {
		return xerr
	}

	fee := uint256.NewInt(0)
	if cfg.ProtocolFee.DaoTreasuryFee > 0 {
		fee = new(uint256.Int).Mul(amount, uint256.NewInt(cfg.ProtocolFee.DaoTreasuryFee))
		fee.Div(fee, uint256.NewInt(ctrlertypes.FeeRateDenominator))
		if fee.IsZero() {
			return xerrors.ErrComputedFeesAreZero.Wrapf("rewards %s at rate %d/%d", amount.Dec(), cfg.ProtocolFee.DaoTreasuryFee, ctrlertypes.FeeRateDenominator)
		}
	}
	restake := new(uint256.Int).Sub(amount, fee)
	if restake.IsZero() {
		return xerrors.ErrReceiveRewardsTooSmall.Wrapf("rewards %s leave nothing to restake after fees", amount.Dec())
	}

	st.TotalRewardAmount = new(uint256.Int).Add(st.TotalRewardAmount, amount)
	st.TotalNativeToken = new(uint256.Int).Add(st.TotalNativeToken, restake)

	if !fee.IsZero() {
		if cfg.ProtocolFee.TreasuryAddress.Empty() {
			st.TotalFees = new(uint256.Int).Add(st.TotalFees, fee)
		} else {
			coin := types.NewCoin(cfg.ProtocolChain.IBCTokenDenom, fee)
			if xerr := ctx.Bank.Send(coin, ctx.Contract, cfg.ProtocolFee.TreasuryAddress); xerr != nil {
				return xerr
			}
		}
	}
	if xerr := ctrler.persistState(); xerr != nil {
		return xerr
	}

	// restake the remainder on the native chain
	if _, xerr := ctrler.transferCtrler.Dispatch(ctx,
		cfg.ProtocolChain.IBCChannelID,
		types.NewCoin(cfg.ProtocolChain.IBCTokenDenom, restake),
		cfg.NativeChain.StakerAddress,
	); xerr != nil {
		return xerr
	}

	ctx.EmitEvent("receive_rewards",
		"rewards", amount.Dec(),
		"fee", fee.Dec(),
		"restaked", restake.Dec(),
	)
	return nil
}
