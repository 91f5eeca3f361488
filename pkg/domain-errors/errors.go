// Package domainerrors defines the coded error taxonomy shared by every registry and gateway.
//
// Services return *Error values created with New or Wrap. Callers branch on the code with
// HasCode, never on the message. Infrastructure failures should be wrapped with CodeInternal
// or translated from pkg/platform/sentinel errors at the service boundary.
package domainerrors

import (
	"errors"
	"net/http"
)

type Code string

const (
	CodeInvalidInput Code = "invalid_input"
	CodeInternal     Code = "internal"
	CodeUnauthorized Code = "unauthorized"

	// Authorization
	CodeOnlyGateway       Code = "only_gateway"
	CodeOnlyRole          Code = "only_role"
	CodeOnlyOwner         Code = "only_owner"
	CodeAccessDenied      Code = "access_denied"
	CodePaused            Code = "paused"
	CodeNotPaused         Code = "not_paused"
	CodePermissionRevoked Code = "permission_revoked"
	CodeAlreadyMigrated   Code = "already_migrated"
	CodeGatewayFrozen     Code = "gateway_frozen"

	// Uniqueness
	CodeCustodyAlreadyRegistered     Code = "custody_already_registered"
	CodeUsernameAlreadyRegistered    Code = "username_already_registered"
	CodeContentHashAlreadyRegistered Code = "content_hash_already_registered"
	CodeNftAlreadyUsed               Code = "nft_already_used"
	CodeNftAlreadyAssigned           Code = "nft_already_assigned"
	CodeSchemaAlreadyExists          Code = "schema_already_exists"
	CodeAlreadyAttested              Code = "already_attested"

	// Not found
	CodeHasNoID             Code = "has_no_id"
	CodeIdentityNotFound    Code = "identity_not_found"
	CodeClaimNotFound       Code = "claim_not_found"
	CodeAttestationNotFound Code = "attestation_not_found"
	CodeInvalidSchema       Code = "invalid_schema"

	// Signatures
	CodeSignatureExpired Code = "signature_expired"
	CodeInvalidSignature Code = "invalid_signature"

	// Value
	CodeInsufficientFee   Code = "insufficient_fee"
	CodeInsufficientValue Code = "insufficient_value"
	CodeNotPayable        Code = "not_payable"
	CodeRefundFailed      Code = "refund_failed"

	// Domain state
	CodeIrrevocable            Code = "irrevocable"
	CodeAlreadyRevoked         Code = "already_revoked"
	CodeAlreadyTimestamped     Code = "already_timestamped"
	CodeAlreadyRevokedOffchain Code = "already_revoked_offchain"
	CodeInvalidExpirationTime  Code = "invalid_expiration_time"
	CodeInvalidAttestation     Code = "invalid_attestation"
	CodeInvalidAttestations    Code = "invalid_attestations"
	CodeInvalidRevocation      Code = "invalid_revocation"
	CodeInvalidRevocations     Code = "invalid_revocations"
	CodeInvalidLength          Code = "invalid_length"
	CodeInvalidNft             Code = "invalid_nft"
	CodeNftNotOwned            Code = "nft_not_owned"
	CodeInvalidUsername        Code = "invalid_username"
	CodeInvalidAddress         Code = "invalid_address"
)

// Error is a domain error carrying a stable code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code to an underlying error. A nil err still produces a coded error.
func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any error in err's chain is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost domain code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the status the HTTP API responds with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeInvalidUsername, CodeInvalidAddress, CodeInvalidLength,
		CodeInvalidNft, CodeInvalidExpirationTime, CodeInvalidSchema:
		return http.StatusBadRequest
	case CodeSignatureExpired, CodeInvalidSignature, CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeOnlyGateway, CodeOnlyRole, CodeOnlyOwner, CodeAccessDenied, CodePermissionRevoked,
		CodeNftNotOwned, CodeHasNoID, CodeGatewayFrozen:
		return http.StatusForbidden
	case CodeIdentityNotFound, CodeClaimNotFound, CodeAttestationNotFound:
		return http.StatusNotFound
	case CodeCustodyAlreadyRegistered, CodeUsernameAlreadyRegistered, CodeContentHashAlreadyRegistered,
		CodeNftAlreadyUsed, CodeNftAlreadyAssigned, CodeSchemaAlreadyExists, CodeAlreadyAttested,
		CodeAlreadyRevoked, CodeAlreadyTimestamped, CodeAlreadyRevokedOffchain, CodeAlreadyMigrated,
		CodeIrrevocable:
		return http.StatusConflict
	case CodeInsufficientFee, CodeInsufficientValue, CodeNotPayable, CodeRefundFailed:
		return http.StatusPaymentRequired
	case CodePaused, CodeNotPaused:
		return http.StatusServiceUnavailable
	case CodeInvalidAttestation, CodeInvalidAttestations, CodeInvalidRevocation, CodeInvalidRevocations:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
