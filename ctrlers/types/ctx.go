package types

import (
	"github.com/holiman/uint256"
	"github.com/milkyway-labs/lsd-go/types"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
	abcitypes "github.com/tendermint/tendermint/abci/types"
)

// ITokenFactory is the host token-factory boundary.
type ITokenFactory interface {
	// CreateDenom registers subdenom under the contract and returns the
	// full denom.
	CreateDenom(subdenom string) (string, xerrors.XError)
	Mint(denom string, amount *uint256.Int, mintTo types.Address) xerrors.XError
	Burn(denom string, amount *uint256.Int, burnFrom types.Address) xerrors.XError
}

// ITransferPort dispatches outbound cross-chain transfers with
// "always reply" semantics: the host must later deliver a reply carrying
// dispatchID and, on success, the transport sequence number.
type ITransferPort interface {
	DispatchTransfer(dispatchID uint64, channelID string, token types.Coin, sender, receiver types.Address, timeoutTime int64) xerrors.XError
}

// IBank moves funds the contract already holds on the protocol chain.
type IBank interface {
	Send(token types.Coin, from, to types.Address) xerrors.XError
}

// ExecContext carries one operation's inputs and host bindings. The host
// applies operations one at a time; everything here is call-local.
type ExecContext struct {
	Sender    types.Address
	Contract  types.Address
	Funds     []types.Coin
	Height    int64
	BlockTime int64  // unix seconds
	TxIndex   uint32 // position of the transaction within its block
	Events    []abcitypes.Event

	TokenFactory ITokenFactory
	TransferPort ITransferPort
	Bank         IBank

	dispatchNonce uint32
}

// NextDispatchID derives a dispatch id unique across the whole block.
// The block time is combined with the transaction's index in the block
// and a call-local counter, so two operations landing in the same block
// can never mint the same id.
func (ctx *ExecContext) NextDispatchID() uint64 {
	ctx.dispatchNonce++
	return uint64(ctx.BlockTime)<<20 |
		uint64(ctx.TxIndex&0x0fff)<<8 |
		uint64(ctx.dispatchNonce&0xff)
}

// AttachedFund requires exactly one attached coin of the given denom with a
// positive amount.
func (ctx *ExecContext) AttachedFund(denom string) (*uint256.Int, xerrors.XError) {
	if len(ctx.Funds) != 1 {
		return nil, xerrors.ErrPayment.Wrapf("expected exactly one coin, got %d", len(ctx.Funds))
	}
	coin := ctx.Funds[0]
	if coin.Denom != denom {
		return nil, xerrors.ErrPayment.Wrapf("expected denom %s, got %s", denom, coin.Denom)
	}
	if coin.IsZero() {
		return nil, xerrors.ErrPayment.Wrapf("zero amount of %s", denom)
	}
	return coin.Amount.Clone(), nil
}

func (ctx *ExecContext) EmitEvent(evtType string, kvs ...string) {
	var attrs []abcitypes.EventAttribute
	for i := 0; i+1 < len(kvs); i += 2 {
		attrs = append(attrs, abcitypes.EventAttribute{
			Key:   []byte(kvs[i]),
			Value: []byte(kvs[i+1]),
			Index: true,
		})
	}
	ctx.Events = append(ctx.Events, abcitypes.Event{Type: evtType, Attributes: attrs})
}
