package types

import (
	"github.com/holiman/uint256"
)

// InitMsg carries the full config plus the liquid token subdenom to
// register with the token factory. The instantiating sender becomes the
// owner.
type InitMsg struct {
	NativeChain              NativeChainConfig   `json:"native_chain_config"`
	ProtocolChain            ProtocolChainConfig `json:"protocol_chain_config"`
	ProtocolFee              ProtocolFeeConfig   `json:"protocol_fee_config"`
	LiquidStakeTokenSubdenom string              `json:"liquid_stake_token_subdenom"`
	BatchPeriod              int64               `json:"batch_period"`
	Monitors                 []string            `json:"monitors,omitempty"`
}

// ExecuteMsg is the operation envelope dispatched by the host runtime.
// Exactly one field must be set.
type ExecuteMsg struct {
	LiquidStake             *MsgLiquidStake             `json:"liquid_stake,omitempty"`
	LiquidUnstake           *MsgLiquidUnstake           `json:"liquid_unstake,omitempty"`
	SubmitBatch             *MsgSubmitBatch             `json:"submit_batch,omitempty"`
	ReceiveUnstakedTokens   *MsgReceiveUnstakedTokens   `json:"receive_unstaked_tokens,omitempty"`
	Withdraw                *MsgWithdraw                `json:"withdraw,omitempty"`
	ReceiveRewards          *MsgReceiveRewards          `json:"receive_rewards,omitempty"`
	CircuitBreaker          *MsgCircuitBreaker          `json:"circuit_breaker,omitempty"`
	ResumeContract          *MsgResumeContract          `json:"resume_contract,omitempty"`
	SlashBatches            *MsgSlashBatches            `json:"slash_batches,omitempty"`
	FeeWithdraw             *MsgFeeWithdraw             `json:"fee_withdraw,omitempty"`
	AddValidator            *MsgAddValidator            `json:"add_validator,omitempty"`
	RemoveValidator         *MsgRemoveValidator         `json:"remove_validator,omitempty"`
	TransferOwnership       *MsgTransferOwnership       `json:"transfer_ownership,omitempty"`
	AcceptOwnership         *MsgAcceptOwnership         `json:"accept_ownership,omitempty"`
	RevokeOwnershipTransfer *MsgRevokeOwnershipTransfer `json:"revoke_ownership_transfer,omitempty"`
	RecoverPackets          *MsgRecoverPackets          `json:"recover_packets,omitempty"`
	UpdateConfig            *MsgUpdateConfig            `json:"update_config,omitempty"`
}

type MsgLiquidStake struct {
	// MintTo defaults to the sender. It may live on either chain; the
	// prefix decides whether the minted tokens are sent cross-chain.
	MintTo string `json:"mint_to,omitempty"`
	// MinMintAmount is a slippage guard on the computed mint amount.
	MinMintAmount *uint256.Int `json:"min_mint_amount,omitempty"`
}

// MsgLiquidUnstake queues the attached liquid tokens into the open batch.
type MsgLiquidUnstake struct{}

type MsgSubmitBatch struct{}

type MsgReceiveUnstakedTokens struct {
	BatchID uint64 `json:"batch_id"`
}

type MsgWithdraw struct {
	BatchID uint64 `json:"batch_id"`
}

type MsgReceiveRewards struct{}

type MsgCircuitBreaker struct{}

// MsgResumeContract clears the circuit breaker and overwrites the running
// totals with reconciled values.
type MsgResumeContract struct {
	TotalNativeToken      *uint256.Int `json:"total_native_token"`
	TotalLiquidStakeToken *uint256.Int `json:"total_liquid_stake_token"`
	TotalRewardAmount     *uint256.Int `json:"total_reward_amount"`
}

type BatchSlashCorrection struct {
	BatchID                uint64       `json:"batch_id"`
	ExpectedNativeUnstaked *uint256.Int `json:"expected_native_unstaked"`
}

type MsgSlashBatches struct {
	NewAmounts []BatchSlashCorrection `json:"new_amounts"`
}

type MsgFeeWithdraw struct {
	Amount *uint256.Int `json:"amount"`
}

type MsgAddValidator struct {
	Validator string `json:"new_validator"`
}

type MsgRemoveValidator struct {
	Validator string `json:"validator"`
}

type MsgTransferOwnership struct {
	NewOwner string `json:"new_owner"`
}

type MsgAcceptOwnership struct{}

type MsgRevokeOwnershipTransfer struct{}

// MsgRecoverPackets re-dispatches failed or timed-out transfers for one
// receiver, either by explicit sequence numbers or by scanning.
type MsgRecoverPackets struct {
	Receiver        string   `json:"receiver"`
	SelectedPackets []uint64 `json:"selected_packets,omitempty"`
	PageSize        uint32   `json:"page_size,omitempty"`
}

// MsgUpdateConfig carries owner-only config updates. Nil fields are left
// unchanged; the merged config is fully re-validated.
type MsgUpdateConfig struct {
	BatchPeriod              *int64        `json:"batch_period,omitempty"`
	UnbondingPeriod          *int64        `json:"unbonding_period,omitempty"`
	MinimumLiquidStakeAmount *uint256.Int  `json:"minimum_liquid_stake_amount,omitempty"`
	Monitors                 *[]string     `json:"monitors,omitempty"`
	TreasuryAddress          *string       `json:"treasury_address,omitempty"`
	DaoTreasuryFee           *uint64       `json:"dao_treasury_fee,omitempty"`
	OracleAddress            *string       `json:"oracle_address,omitempty"`
}
