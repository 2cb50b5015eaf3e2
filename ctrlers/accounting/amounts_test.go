package accounting

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	tmrand "github.com/tendermint/tendermint/libs/rand"
)

func TestComputeMintAmountFirstDeposit(t *testing.T) {
	mint := ComputeMintAmount(uint256.NewInt(0), uint256.NewInt(0), uint256.NewInt(1000))
	require.Equal(t, uint256.NewInt(1000), mint)
}

func TestComputeMintAmountFloor(t *testing.T) {
	// floor(liquid * deposit / native)
	mint := ComputeMintAmount(uint256.NewInt(3000), uint256.NewInt(1000), uint256.NewInt(100))
	require.Equal(t, uint256.NewInt(33), mint)
}

func TestComputeMintAmountZeroResult(t *testing.T) {
	// tiny deposit against a huge pool floors to zero; callers must reject
	mint := ComputeMintAmount(uint256.MustFromDecimal("1000000000000"), uint256.NewInt(1), uint256.NewInt(10))
	require.True(t, mint.IsZero())
}

func TestComputeMintAmountMatchesBigInt(t *testing.T) {
	for i := 0; i < 1000; i++ {
		native := uint256.NewInt(uint64(tmrand.Int63n(1_000_000_000) + 1))
		liquid := uint256.NewInt(uint64(tmrand.Int63n(1_000_000_000)))
		deposit := uint256.NewInt(uint64(tmrand.Int63n(1_000_000_000)))

		expected := new(big.Int).Mul(liquid.ToBig(), deposit.ToBig())
		expected.Div(expected, native.ToBig())

		mint := ComputeMintAmount(native, liquid, deposit)
		require.Equal(t, expected.String(), mint.Dec())
	}
}

func TestComputeUnbondAmount(t *testing.T) {
	require.True(t, ComputeUnbondAmount(uint256.NewInt(1000), uint256.NewInt(500), uint256.NewInt(0)).IsZero())

	// floor(native * batchLiquid / liquid)
	unbond := ComputeUnbondAmount(uint256.NewInt(1000), uint256.NewInt(300), uint256.NewInt(100))
	require.Equal(t, uint256.NewInt(333), unbond)
}

func TestComputeUnbondAmountMatchesBigInt(t *testing.T) {
	for i := 0; i < 1000; i++ {
		native := uint256.NewInt(uint64(tmrand.Int63n(1_000_000_000)))
		liquid := uint256.NewInt(uint64(tmrand.Int63n(1_000_000_000) + 1))
		batch := uint256.NewInt(uint64(tmrand.Int63n(1_000_000_000) + 1))

		expected := new(big.Int).Mul(native.ToBig(), batch.ToBig())
		expected.Div(expected, liquid.ToBig())

		unbond := ComputeUnbondAmount(native, liquid, batch)
		require.Equal(t, expected.String(), unbond.Dec())
	}
}

func TestProRataShare(t *testing.T) {
	// slashed batch scenario: bob=40000, tom=90000, received=990000
	received := uint256.NewInt(990000)
	total := uint256.NewInt(130000)

	bob := ProRataShare(received, uint256.NewInt(40000), total)
	tom := ProRataShare(received, uint256.NewInt(90000), total)

	require.Equal(t, uint256.NewInt(304615), bob)
	require.Equal(t, uint256.NewInt(685384), tom)

	// dust of 1 stays behind
	sum := new(uint256.Int).Add(bob, tom)
	require.Equal(t, uint256.NewInt(989999), sum)
}

func TestGetRatesIdentity(t *testing.T) {
	r, p := GetRates(uint256.NewInt(0), uint256.NewInt(100))
	require.Equal(t, big.NewRat(1, 1), r)
	require.Equal(t, big.NewRat(1, 1), p)

	r, p = GetRates(uint256.NewInt(100), uint256.NewInt(0))
	require.Equal(t, big.NewRat(1, 1), r)
	require.Equal(t, big.NewRat(1, 1), p)
}

func TestGetRatesExact(t *testing.T) {
	r, p := GetRates(uint256.NewInt(1500), uint256.NewInt(1000))
	require.Equal(t, big.NewRat(3, 2), r)
	require.Equal(t, big.NewRat(2, 3), p)

	// redemption * purchase == 1 exactly
	require.Equal(t, big.NewRat(1, 1), new(big.Rat).Mul(r, p))
}
