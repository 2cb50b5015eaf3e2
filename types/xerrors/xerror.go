package xerrors

import (
	"fmt"

	abcitypes "github.com/tendermint/tendermint/abci/types"
)

const (
	ErrCodeSuccess uint32 = abcitypes.CodeTypeOK + iota
	ErrCodeGeneric
	ErrCodeNotFoundResult
	ErrCodeQuery
	ErrCodeInvalidQueryCmd
	ErrCodeInvalidQueryParams

	// validation
	ErrCodeInvalidAddress
	ErrCodeInvalidDenom
	ErrCodeInvalidFeeRate
	ErrCodeInvalidPeriod

	// authorization
	ErrCodeUnauthorized
	ErrCodeNotStopped
	ErrCodeContractStopped

	// precondition
	ErrCodeMinimumLiquidStakeAmount
	ErrCodeBatchNotReady
	ErrCodeBatchEmpty
	ErrCodeInvalidUnstakeAmount
	ErrCodeBatchNotClaimable
	ErrCodeBatchWithoutExpectedNativeAmount
	ErrCodeUnexpectedBatchStatus
	ErrCodeNoRequestInBatch
	ErrCodeNoLiquidStake
	ErrCodePayment
	ErrCodeInsufficientFunds
	ErrCodeTreasuryNotConfigured
	ErrCodeDuplicateValidator
	ErrCodeValidatorNotFound
	ErrCodeOwnershipTransferNotReady
	ErrCodeNoPendingOwner
	ErrCodeReceiveRewardsTooSmall

	// consistency
	ErrCodeReceivedWrongBatchAmount
	ErrCodeMintError
	ErrCodeMintAmountMismatch
	ErrCodeComputedFeesAreZero

	// transfer tracking
	ErrCodeContractLocked
	ErrCodeFailedIBCTransfer
	ErrCodeInvalidReceiver
	ErrCodeInvalidPacketStatus
	ErrCodeNoInflightPackets

	ErrLast
)

var (
	ErrNotFoundResult     = NewWith(ErrCodeNotFoundResult, "not found result")
	ErrQuery              = NewWith(ErrCodeQuery, "query failed")
	ErrInvalidQueryCmd    = NewWith(ErrCodeInvalidQueryCmd, "invalid query command")
	ErrInvalidQueryParams = NewWith(ErrCodeInvalidQueryParams, "invalid query parameters")

	ErrInvalidAddress = NewWith(ErrCodeInvalidAddress, "invalid address")
	ErrInvalidDenom   = NewWith(ErrCodeInvalidDenom, "invalid denom")
	ErrInvalidFeeRate = NewWith(ErrCodeInvalidFeeRate, "treasury fee rate is out of bounds")
	ErrInvalidPeriod  = NewWith(ErrCodeInvalidPeriod, "invalid period")

	ErrUnauthorized    = NewWith(ErrCodeUnauthorized, "unauthorized")
	ErrNotStopped      = NewWith(ErrCodeNotStopped, "contract is not stopped")
	ErrContractStopped = NewWith(ErrCodeContractStopped, "contract is stopped")

	ErrMinimumLiquidStakeAmount          = NewWith(ErrCodeMinimumLiquidStakeAmount, "amount is below the minimum liquid stake amount")
	ErrBatchNotReady                     = NewWith(ErrCodeBatchNotReady, "batch is not ready")
	ErrBatchEmpty                        = NewWith(ErrCodeBatchEmpty, "batch has no unstake requests")
	ErrInvalidUnstakeAmount              = NewWith(ErrCodeInvalidUnstakeAmount, "batch liquid stake exceeds the outstanding liquid supply")
	ErrBatchNotClaimable                 = NewWith(ErrCodeBatchNotClaimable, "batch is not claimable")
	ErrBatchWithoutExpectedNativeAmount  = NewWith(ErrCodeBatchWithoutExpectedNativeAmount, "batch has no expected native unstaked amount")
	ErrUnexpectedBatchStatus             = NewWith(ErrCodeUnexpectedBatchStatus, "unexpected batch status")
	ErrNoRequestInBatch                  = NewWith(ErrCodeNoRequestInBatch, "no unstake request in batch")
	ErrNoLiquidStake                     = NewWith(ErrCodeNoLiquidStake, "no outstanding liquid stake")
	ErrPayment                           = NewWith(ErrCodePayment, "wrong or missing payment")
	ErrInsufficientFunds                 = NewWith(ErrCodeInsufficientFunds, "insufficient funds")
	ErrTreasuryNotConfigured             = NewWith(ErrCodeTreasuryNotConfigured, "treasury address is not configured")
	ErrDuplicateValidator                = NewWith(ErrCodeDuplicateValidator, "validator already exists")
	ErrValidatorNotFound                 = NewWith(ErrCodeValidatorNotFound, "validator not found")
	ErrOwnershipTransferNotReady         = NewWith(ErrCodeOwnershipTransferNotReady, "ownership transfer is not claimable yet")
	ErrNoPendingOwner                    = NewWith(ErrCodeNoPendingOwner, "no pending owner")
	ErrReceiveRewardsTooSmall            = NewWith(ErrCodeReceiveRewardsTooSmall, "received rewards are too small")

	ErrReceivedWrongBatchAmount = NewWith(ErrCodeReceivedWrongBatchAmount, "received amount does not match the expected native unstaked amount")
	ErrMintError                = NewWith(ErrCodeMintError, "mint amount is zero")
	ErrMintAmountMismatch       = NewWith(ErrCodeMintAmountMismatch, "mint amount is below the requested minimum")
	ErrComputedFeesAreZero      = NewWith(ErrCodeComputedFeesAreZero, "computed fees are zero")

	ErrContractLocked      = NewWith(ErrCodeContractLocked, "a transfer dispatch is already waiting for its reply")
	ErrFailedIBCTransfer   = NewWith(ErrCodeFailedIBCTransfer, "ibc transfer failed")
	ErrInvalidReceiver     = NewWith(ErrCodeInvalidReceiver, "selected packets do not belong to the receiver")
	ErrInvalidPacketStatus = NewWith(ErrCodeInvalidPacketStatus, "packet status is not recoverable")
	ErrNoInflightPackets   = NewWith(ErrCodeNoInflightPackets, "no in-flight packets selected")
)

type XError interface {
	Code() uint32
	Error() string
	Cause() error
	With(error) XError
	Wrap(error) XError
	Wrapf(string, ...interface{}) XError
	Unwrap() error
	Contains(XError) bool
}

type xerr struct {
	code  uint32
	msg   string
	cause error
}

func NewOrdinary(m string) XError {
	return &xerr{
		code: ErrCodeGeneric,
		msg:  m,
	}
}

func NewWith(code uint32, msg string) XError {
	return &xerr{
		code: code,
		msg:  msg,
	}
}

func From(err error) XError {
	if err == nil {
		return nil
	}
	if xe, ok := err.(XError); ok {
		return xe
	}
	return &xerr{
		code: ErrCodeGeneric,
		msg:  err.Error(),
	}
}

func (e *xerr) Code() uint32 {
	return e.code
}

func (e *xerr) Error() string {
	if e.cause != nil {
		return e.msg + "<<" + e.cause.Error()
	}
	return e.msg
}

func (e *xerr) Cause() error {
	return e.cause
}

func (e *xerr) Unwrap() error {
	return e.Cause()
}

func (e *xerr) With(err error) XError {
	return &xerr{
		code:  e.code,
		msg:   e.msg,
		cause: err,
	}
}

func (e *xerr) Wrap(err error) XError {
	return &xerr{
		code:  e.code,
		msg:   e.msg,
		cause: err,
	}
}

func (e *xerr) Wrapf(format string, args ...interface{}) XError {
	return &xerr{
		code:  e.code,
		msg:   e.msg,
		cause: fmt.Errorf(format, args...),
	}
}

// Contains reports whether the receiver or any of its causes carries
// the same code as o.
func (e *xerr) Contains(o XError) bool {
	if o == nil {
		return false
	}
	if e.code == o.Code() {
		return true
	}
	if cause, ok := e.cause.(XError); ok {
		return cause.Contains(o)
	}
	return false
}
