package market

import (
	"github.com/pkg/errors"
)

// Kind classifies why an operation was rejected.
type Kind uint8

const (
	KindValidation Kind = iota + 1
	KindAuthorization
	KindState
	KindTemporal
	KindArithmetic
	KindDuplicate
	KindConflict
	KindNotFound
	KindFunds
)

var kindValue = map[Kind]string{
	KindValidation:    "validation",
	KindAuthorization: "authorization",
	KindState:         "state",
	KindTemporal:      "temporal",
	KindArithmetic:    "arithmetic",
	KindDuplicate:     "duplicate",
	KindConflict:      "conflict",
	KindNotFound:      "not-found",
	KindFunds:         "funds",
}

// String returns the string of error kind
func (k Kind) String() string {
	if _, ok := kindValue[k]; !ok {
		return "unknown"
	}
	return kindValue[k]
}

// Error is a rejected market operation. Values are compared by identity,
// use errors.Is against the exported sentinels.
type Error struct {
	code int
	kind Kind
	msg  string
}

func newError(code int, kind Kind, msg string) *Error {
	return &Error{code: code, kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

// Code returns the stable numeric code of the error.
func (e *Error) Code() int {
	return e.code
}

// Kind returns the taxonomy class of the error.
func (e *Error) Kind() Kind {
	return e.kind
}

// KindOf returns the kind of a market error anywhere in the chain of err.
func KindOf(err error) (Kind, bool) {
	var me *Error
	if errors.As(err, &me) {
		return me.kind, true
	}
	return 0, false
}

var (
	ErrUnauthorized           = newError(6000, KindAuthorization, "unauthorized")
	ErrInvalidIdeaStatus      = newError(6001, KindState, "invalid idea status")
	ErrInvalidProposalStatus  = newError(6002, KindState, "invalid proposal status")
	ErrInvalidEscrowStatus    = newError(6003, KindState, "invalid escrow status")
	ErrMathOverflow           = newError(6004, KindArithmetic, "math overflow")
	ErrInvalidAmount          = newError(6005, KindValidation, "invalid amount")
	ErrURITooLong             = newError(6006, KindValidation, "uri too long")
	ErrInvalidCommittee       = newError(6007, KindValidation, "invalid committee")
	ErrInvalidMilestones      = newError(6008, KindValidation, "invalid milestones")
	ErrMilestoneSumMismatch   = newError(6009, KindValidation, "milestone sum mismatch")
	ErrProposalIdeaMismatch   = newError(6010, KindState, "proposal does not belong to idea")
	ErrVoteEnded              = newError(6011, KindTemporal, "vote ended")
	ErrVoteNotEnded           = newError(6012, KindTemporal, "vote not ended")
	ErrInvalidMilestoneIndex  = newError(6013, KindValidation, "invalid milestone index")
	ErrInvalidMilestoneStatus = newError(6014, KindState, "invalid milestone status")
	ErrEscrowProposalMismatch = newError(6015, KindState, "escrow does not belong to proposal")
	ErrInsufficientStake      = newError(6016, KindFunds, "insufficient stake")

	ErrNotInitialized     = newError(6100, KindNotFound, "market config not initialized")
	ErrAlreadyInitialized = newError(6101, KindDuplicate, "market config already initialized")
	ErrIdeaExists         = newError(6102, KindDuplicate, "idea already exists")
	ErrProposalExists     = newError(6103, KindDuplicate, "proposal already exists")
	ErrAlreadyVoted       = newError(6104, KindDuplicate, "already voted")
	ErrEscrowExists       = newError(6105, KindDuplicate, "escrow already exists")
	ErrConflict           = newError(6106, KindConflict, "concurrent modification, resubmit")
	ErrInsufficientFunds  = newError(6107, KindFunds, "insufficient funds")
	ErrAssetMismatch      = newError(6108, KindValidation, "asset mismatch")
	ErrInvalidPrincipal   = newError(6109, KindValidation, "invalid principal")
	ErrStakeIdeaMismatch  = newError(6110, KindState, "stake position does not belong to idea")

	ErrIdeaNotFound       = newError(6200, KindNotFound, "idea not found")
	ErrProposalNotFound   = newError(6201, KindNotFound, "proposal not found")
	ErrEscrowNotFound     = newError(6202, KindNotFound, "escrow not found")
	ErrStakeNotFound      = newError(6203, KindNotFound, "stake position not found")
	ErrMilestoneNotFound  = newError(6204, KindNotFound, "milestone not found")
	ErrVaultNotFound      = newError(6205, KindNotFound, "vault not found")
	ErrVoteNotFound       = newError(6206, KindNotFound, "vote not found")
	ErrReputationNotFound = newError(6207, KindNotFound, "reputation not found")
)
