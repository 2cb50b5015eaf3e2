package types

import (
	"encoding/json"
	"regexp"
	"sync"

	"github.com/holiman/uint256"
	"github.com/milkyway-labs/lsd-go/ledger"
	"github.com/milkyway-labs/lsd-go/types"
	"github.com/milkyway-labs/lsd-go/types/bytes"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
)

// FeeRateDenominator is the base of the treasury fee rate: a rate of
// 100_000 means 100% of received rewards.
const FeeRateDenominator = uint64(100_000)

var reChannelID = regexp.MustCompile(`^channel-[0-9]+$`)

// NativeChainConfig describes the chain where the backing token is staked.
type NativeChainConfig struct {
	AccountPrefix          string          `json:"account_address_prefix"`
	ValidatorPrefix        string          `json:"validator_address_prefix"`
	TokenDenom             string          `json:"token_denom"`
	Validators             []types.Address `json:"validators"`
	StakerAddress          types.Address   `json:"staker_address"`
	RewardCollectorAddress types.Address   `json:"reward_collector_address"`
	UnbondingPeriod        int64           `json:"unbonding_period"` // seconds
}

// ProtocolChainConfig describes the chain the contract itself runs on.
type ProtocolChainConfig struct {
	AccountPrefix            string        `json:"account_address_prefix"`
	IBCTokenDenom            string        `json:"ibc_token_denom"`
	IBCChannelID             string        `json:"ibc_channel_id"`
	MinimumLiquidStakeAmount *uint256.Int  `json:"minimum_liquid_stake_amount"`
	OracleAddress            types.Address `json:"oracle_address,omitempty"`
}

type ProtocolFeeConfig struct {
	DaoTreasuryFee  uint64        `json:"dao_treasury_fee"` // parts per 100_000
	TreasuryAddress types.Address `json:"treasury_address,omitempty"`
}

type Config struct {
	NativeChain           NativeChainConfig   `json:"native_chain_config"`
	ProtocolChain         ProtocolChainConfig `json:"protocol_chain_config"`
	ProtocolFee           ProtocolFeeConfig   `json:"protocol_fee_config"`
	LiquidStakeTokenDenom string              `json:"liquid_stake_token_denom"`
	BatchPeriod           int64               `json:"batch_period"` // seconds
	Monitors              []types.Address     `json:"monitors"`
	Stopped               bool                `json:"stopped"`

	mtx sync.RWMutex
}

// Validate checks every field against its chain's address prefix and the
// protocol bounds. It is called before the config is installed or updated.
func (cfg *Config) Validate() xerrors.XError {
	cfg.mtx.RLock()
	defer cfg.mtx.RUnlock()

	nc := &cfg.NativeChain
	pc := &cfg.ProtocolChain

	if nc.AccountPrefix == "" || nc.ValidatorPrefix == "" || pc.AccountPrefix == "" {
		return xerrors.ErrInvalidAddress.Wrapf("empty address prefix")
	}
	if xerr := types.ValidateDenom(nc.TokenDenom); xerr != nil {
		return xerr
	}
	if xerr := types.ValidateIBCDenom(pc.IBCTokenDenom); xerr != nil {
		return xerr
	}
	if xerr := types.ValidateDenom(cfg.LiquidStakeTokenDenom); xerr != nil {
		return xerr
	}
	if !reChannelID.MatchString(pc.IBCChannelID) {
		return xerrors.ErrInvalidDenom.Wrapf("bad channel id: %s", pc.IBCChannelID)
	}

	if len(nc.Validators) == 0 {
		return xerrors.ErrValidatorNotFound.Wrapf("validator set is empty")
	}
	for _, v := range nc.Validators {
		if _, xerr := types.ValidateAddress(v.String(), nc.ValidatorPrefix); xerr != nil {
			return xerr
		}
	}
	if _, xerr := types.ValidateAddress(nc.StakerAddress.String(), nc.AccountPrefix); xerr != nil {
		return xerr
	}
	if _, xerr := types.ValidateAddress(nc.RewardCollectorAddress.String(), nc.AccountPrefix); xerr != nil {
		return xerr
	}
	if !pc.OracleAddress.Empty() {
		if _, xerr := types.ValidateAddress(pc.OracleAddress.String(), pc.AccountPrefix); xerr != nil {
			return xerr
		}
	}
	for _, m := range cfg.Monitors {
		if _, xerr := types.ValidateAddress(m.String(), pc.AccountPrefix); xerr != nil {
			return xerr
		}
	}

	if cfg.ProtocolFee.DaoTreasuryFee > FeeRateDenominator {
		return xerrors.ErrInvalidFeeRate.Wrapf("rate: %d, max: %d", cfg.ProtocolFee.DaoTreasuryFee, FeeRateDenominator)
	}
	if !cfg.ProtocolFee.TreasuryAddress.Empty() {
		if _, xerr := types.ValidateAddress(cfg.ProtocolFee.TreasuryAddress.String(), pc.AccountPrefix); xerr != nil {
			return xerr
		}
	}

	if nc.UnbondingPeriod <= 0 {
		return xerrors.ErrInvalidPeriod.Wrapf("unbonding period must be positive: %d", nc.UnbondingPeriod)
	}
	if cfg.BatchPeriod <= 0 || cfg.BatchPeriod > nc.UnbondingPeriod {
		return xerrors.ErrInvalidPeriod.Wrapf("batch period %d must be in (0, unbonding period %d]", cfg.BatchPeriod, nc.UnbondingPeriod)
	}
	if pc.MinimumLiquidStakeAmount == nil {
		return xerrors.ErrInvalidQueryParams.Wrapf("minimum liquid stake amount is not set")
	}
	return nil
}

func (cfg *Config) IsMonitor(addr types.Address) bool {
	cfg.mtx.RLock()
	defer cfg.mtx.RUnlock()

	for _, m := range cfg.Monitors {
		if m == addr {
			return true
		}
	}
	return false
}

func (cfg *Config) HasValidator(addr types.Address) bool {
	cfg.mtx.RLock()
	defer cfg.mtx.RUnlock()

	for _, v := range cfg.NativeChain.Validators {
		if v == addr {
			return true
		}
	}
	return false
}

func (cfg *Config) Key() ledger.LedgerKey {
	return ledger.ToLedgerKey(bytes.ZeroBytes(ledger.LEDGERKEYSIZE))
}

func (cfg *Config) Encode() ([]byte, xerrors.XError) {
	cfg.mtx.RLock()
	defer cfg.mtx.RUnlock()

	if bz, err := json.Marshal(cfg); err != nil {
		return nil, xerrors.From(err)
	} else {
		return bz, nil
	}
}

func (cfg *Config) Decode(bz []byte) xerrors.XError {
	cfg.mtx.Lock()
	defer cfg.mtx.Unlock()

	if err := json.Unmarshal(bz, cfg); err != nil {
		return xerrors.From(err)
	}
	return nil
}

var _ ledger.ILedgerItem = (*Config)(nil)
