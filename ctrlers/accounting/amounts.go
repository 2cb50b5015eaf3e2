package accounting

import (
	"math/big"

	"github.com/holiman/uint256"
)

// ComputeMintAmount returns the liquid tokens to mint for a deposit of the
// native token. The first deposit mints 1:1; afterwards the mint follows
// the current liquid/native ratio with floor division. A zero result must
// be rejected by the caller.
func ComputeMintAmount(totalNative, totalLiquid, deposit *uint256.Int) *uint256.Int {
	if totalNative.IsZero() {
		return deposit.Clone()
	}
	prod := new(uint256.Int).Mul(totalLiquid, deposit)
	return prod.Div(prod, totalNative)
}

// ComputeUnbondAmount returns the native tokens owed for unstaking
// batchLiquid liquid tokens, floor division. It is evaluated once per
// batch at submission time.
func ComputeUnbondAmount(totalNative, totalLiquid, batchLiquid *uint256.Int) *uint256.Int {
	if batchLiquid.IsZero() || totalLiquid.IsZero() {
		return uint256.NewInt(0)
	}
	prod := new(uint256.Int).Mul(totalNative, batchLiquid)
	return prod.Div(prod, totalLiquid)
}

// ProRataShare returns floor(total * part / whole). Rounding dust stays
// with the pool.
func ProRataShare(total, part, whole *uint256.Int) *uint256.Int {
	if part.IsZero() || whole.IsZero() {
		return uint256.NewInt(0)
	}
	prod := new(uint256.Int).Mul(total, part)
	return prod.Div(prod, whole)
}

// GetRates returns the redemption rate (native per liquid) and purchase
// rate (liquid per native) as exact rationals. Both are 1 when either
// total is zero.
func GetRates(totalNative, totalLiquid *uint256.Int) (*big.Rat, *big.Rat) {
	if totalNative.IsZero() || totalLiquid.IsZero() {
		one := big.NewRat(1, 1)
		return one, big.NewRat(1, 1)
	}
	n := totalNative.ToBig()
	l := totalLiquid.ToBig()
	return new(big.Rat).SetFrac(n, l), new(big.Rat).SetFrac(l, n)
}
