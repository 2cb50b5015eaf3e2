package types

import (
	"regexp"
	"strings"

	"github.com/holiman/uint256"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
)

var reDenom = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9/:._-]{2,127}$`)
var reIBCHash = regexp.MustCompile(`^[0-9A-F]{64}$`)

// Coin is an amount of a single denom.
type Coin struct {
	Denom  string       `json:"denom"`
	Amount *uint256.Int `json:"amount"`
}

func NewCoin(denom string, amt *uint256.Int) Coin {
	return Coin{Denom: denom, Amount: amt.Clone()}
}

func (c Coin) IsZero() bool {
	return c.Amount == nil || c.Amount.IsZero()
}

// ValidateDenom checks a native token-factory style denom.
func ValidateDenom(denom string) xerrors.XError {
	if !reDenom.MatchString(denom) {
		return xerrors.ErrInvalidDenom.Wrapf("bad denom format: %s", denom)
	}
	return nil
}

// ValidateIBCDenom checks an `ibc/{hash}` voucher denom.
func ValidateIBCDenom(denom string) xerrors.XError {
	if !strings.HasPrefix(denom, "ibc/") {
		return xerrors.ErrInvalidDenom.Wrapf("ibc denom must start with ibc/ : %s", denom)
	}
	if !reIBCHash.MatchString(strings.TrimPrefix(denom, "ibc/")) {
		return xerrors.ErrInvalidDenom.Wrapf("ibc denom hash must be 64 upper case hex chars: %s", denom)
	}
	return nil
}
