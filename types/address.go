package types

import (
	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
)

// Address is a bech32 encoded account address. The chain a given address
// belongs to is determined by its human readable prefix.
type Address string

func (a Address) String() string {
	return string(a)
}

func (a Address) Empty() bool {
	return len(a) == 0
}

// ValidateAddress decodes addr as bech32 and checks its prefix.
func ValidateAddress(addr string, prefix string) (Address, xerrors.XError) {
	hrp, bz, err := bech32.DecodeAndConvert(addr)
	if err != nil {
		return "", xerrors.ErrInvalidAddress.Wrap(err)
	}
	if hrp != prefix {
		return "", xerrors.ErrInvalidAddress.Wrapf("wrong prefix - expected: %s, actual: %s", prefix, hrp)
	}
	if len(bz) == 0 {
		return "", xerrors.ErrInvalidAddress.Wrapf("empty address payload: %s", addr)
	}
	return Address(addr), nil
}
