package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies ledger failures.
type Kind int

const (
	KindInternal Kind = iota
	KindAuthorization
	KindInvalidOperation
	KindInvalidLength
	KindNotFound
	KindAlreadyExists
)

func (k Kind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindInvalidOperation:
		return "invalid_operation"
	case KindInvalidLength:
		return "invalid_length"
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	default:
		return "internal"
	}
}

// Code is a stable machine-readable failure reason.
type Code string

const (
	CodeNotModerator      Code = "not_moderator"
	CodeNotOwner          Code = "not_owner"
	CodePostDeleted       Code = "post_deleted"
	CodeWrongCandidate    Code = "wrong_candidate"
	CodeZeroVote          Code = "zero_vote"
	CodeFlagSameState     Code = "flag_same_state"
	CodeSectionDisabled   Code = "section_disabled"
	CodeActiveChildren    Code = "active_children"
	CodeMaxDepth          Code = "max_depth"
	CodeBadDepth          Code = "bad_depth"
	CodeUnknownDomain     Code = "unknown_domain"
	CodeBadSectionKey     Code = "bad_section_key"
	CodeInsufficientFunds Code = "insufficient_funds"
	CodeInactive          Code = "inactive"
	CodeTooManyOptions    Code = "too_many_options"
	CodeBadAmount         Code = "bad_amount"
	CodeTooLong           Code = "too_long"
	CodeAccountNotFound   Code = "account_not_found"
	CodeSectionNotFound   Code = "section_not_found"
	CodePostNotFound      Code = "post_not_found"
	CodeIdeaNotFound      Code = "idea_not_found"
	CodeFlagNotFound      Code = "flag_not_found"
	CodePollNotFound      Code = "poll_not_found"
	CodeOptionNotFound    Code = "poll_option_not_found"
	CodeFeeTokenNotFound  Code = "fee_token_not_found"
	CodeAccountExists     Code = "account_exists"
	CodeSectionExists     Code = "section_exists"
	CodeFeeTokenExists    Code = "fee_token_exists"
	CodeAddressTaken      Code = "address_taken"
)

// Error is the typed failure every ledger operation returns.
type Error struct {
	Kind Kind
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}
	return e.Msg
}

// Is matches on Code so callers can compare against the exported sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrNotModerator      = &Error{Kind: KindAuthorization, Code: CodeNotModerator}
	ErrNotOwner          = &Error{Kind: KindAuthorization, Code: CodeNotOwner}
	ErrPostDeleted       = &Error{Kind: KindInvalidOperation, Code: CodePostDeleted}
	ErrWrongCandidate    = &Error{Kind: KindInvalidOperation, Code: CodeWrongCandidate}
	ErrZeroVote          = &Error{Kind: KindInvalidOperation, Code: CodeZeroVote}
	ErrFlagSameState     = &Error{Kind: KindInvalidOperation, Code: CodeFlagSameState}
	ErrSectionDisabled   = &Error{Kind: KindInvalidOperation, Code: CodeSectionDisabled}
	ErrActiveChildren    = &Error{Kind: KindInvalidOperation, Code: CodeActiveChildren}
	ErrMaxDepth          = &Error{Kind: KindInvalidOperation, Code: CodeMaxDepth}
	ErrInsufficientFunds = &Error{Kind: KindInvalidOperation, Code: CodeInsufficientFunds}
	ErrInactive          = &Error{Kind: KindInvalidOperation, Code: CodeInactive}
	ErrTooLong           = &Error{Kind: KindInvalidLength, Code: CodeTooLong}
	ErrAccountNotFound   = &Error{Kind: KindNotFound, Code: CodeAccountNotFound}
	ErrSectionNotFound   = &Error{Kind: KindNotFound, Code: CodeSectionNotFound}
	ErrPostNotFound      = &Error{Kind: KindNotFound, Code: CodePostNotFound}
	ErrIdeaNotFound      = &Error{Kind: KindNotFound, Code: CodeIdeaNotFound}
	ErrFlagNotFound      = &Error{Kind: KindNotFound, Code: CodeFlagNotFound}
	ErrPollNotFound      = &Error{Kind: KindNotFound, Code: CodePollNotFound}
	ErrOptionNotFound    = &Error{Kind: KindNotFound, Code: CodeOptionNotFound}
	ErrFeeTokenNotFound  = &Error{Kind: KindNotFound, Code: CodeFeeTokenNotFound}
	ErrAccountExists     = &Error{Kind: KindAlreadyExists, Code: CodeAccountExists}
	ErrSectionExists     = &Error{Kind: KindAlreadyExists, Code: CodeSectionExists}
	ErrFeeTokenExists    = &Error{Kind: KindAlreadyExists, Code: CodeFeeTokenExists}
	ErrAddressTaken      = &Error{Kind: KindAlreadyExists, Code: CodeAddressTaken}
)

// KindOf returns the Kind of a ledger error anywhere in err's chain.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindInternal
}

// CodeOf returns the Code of a ledger error, or "" for foreign errors.
func CodeOf(err error) Code {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

func fail(sentinel *Error, format string, args ...any) *Error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Msg: fmt.Sprintf(format, args...)}
}

func invalid(code Code, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidOperation, Code: code, Msg: fmt.Sprintf(format, args...)}
}

func checkLen(field, value string, limit int) error {
	if len(value) > limit {
		return fail(ErrTooLong, "%s exceeds %d bytes (got %d)", field, limit, len(value))
	}
	return nil
}
