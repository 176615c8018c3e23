package cashu

import "fmt"

// Kind classifies an Error the way callers need to branch on: does the
// operation just need the user to supply more funds, is it worth retrying,
// or is the input simply malformed.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindCrypto           Kind = "crypto"
	KindTransport        Kind = "transport"
	KindProtocol         Kind = "protocol"
	KindInsufficientFund Kind = "insufficient_funds"
	KindState            Kind = "state"
	KindAuth             Kind = "auth"
)

// Code is a stable, small integer identifying the specific failure, in the
// spirit of the mint's own NUT error codes, so a caller bridging to a UI
// can switch on a number instead of a message.
type Code int

const (
	CodeUnspecified Code = iota
	CodeOddHexLength
	CodeInvalidBase64
	CodeAmountNotInKeyset
	CodeSignatureCountMismatch
	CodeSecretParse
	CodePointNotOnCurve
	CodeIdentityPoint
	CodeDLEQMismatch
	CodeScalarZero
	CodeHTTPStatus
	CodeMissingField
	CodeArrayLengthWrong
	CodeNoFunds
	CodeNotLoaded
	CodeNoSeed
	CodeNoAuthToken
	CodeQuoteExpired
)

// Error is the single error type returned by every exported operation in
// this module. Construct it with the New* helpers below rather than
// building it by hand so Kind/Code stay paired correctly.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, code Code, msg string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Err: err}
}

func NewValidationError(code Code, msg string, err error) *Error {
	return newErr(KindValidation, code, msg, err)
}

func NewCryptoError(code Code, msg string, err error) *Error {
	return newErr(KindCrypto, code, msg, err)
}

func NewTransportError(status int, detail string, err error) *Error {
	return &Error{
		Kind:    KindTransport,
		Code:    CodeHTTPStatus,
		Message: fmt.Sprintf("mint returned status %d: %s", status, detail),
		Err:     err,
	}
}

func NewProtocolError(code Code, msg string, err error) *Error {
	return newErr(KindProtocol, code, msg, err)
}

func NewInsufficientFundsError(have, need uint64) *Error {
	return newErr(KindInsufficientFund, CodeNoFunds,
		fmt.Sprintf("have %d, need %d", have, need), nil)
}

func NewStateError(code Code, msg string) *Error {
	return newErr(KindState, code, msg, nil)
}

func NewAuthError(msg string, err error) *Error {
	return newErr(KindAuth, CodeNoAuthToken, msg, err)
}

// Is lets callers write errors.Is(err, cashu.ErrInsufficientFunds) style
// checks against a kind rather than a specific message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	if t.Code != CodeUnspecified && t.Code != e.Code {
		return false
	}
	return true
}

// Sentinels for errors.Is matching: ErrInsufficientFunds matches by kind
// only; ErrNotLoaded and ErrNoSeed match by kind and code.
var (
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFund}
	ErrNotLoaded         = &Error{Kind: KindState, Code: CodeNotLoaded}
	ErrNoSeed            = &Error{Kind: KindState, Code: CodeNoSeed}
)
