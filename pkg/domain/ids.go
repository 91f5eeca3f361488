// Package domain holds typed identifiers shared by the registries.
//
// Identity and claim ids are sequential positive integers; zero is the "none" sentinel and is
// never assigned. Content hashes, schema uids and attestation uids are 32-byte values
// (common.Hash). Addresses are 20-byte Ethereum addresses (common.Address).
//
// Construct ids from external input only through the Parse functions so malformed values are
// rejected at the trust boundary.
package domain

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	dErrors "provenance/pkg/domain-errors"
)

const maxInputLen = 128

// IdentityID identifies an identity in the IdentityRegistry. Zero means "no identity".
type IdentityID uint64

// ClaimID identifies a provenance claim. Zero means "no claim".
type ClaimID uint64

func (id IdentityID) String() string { return strconv.FormatUint(uint64(id), 10) }
func (id IdentityID) IsZero() bool   { return id == 0 }

// Big returns the id as a uint256 value for typed-data encoding.
func (id IdentityID) Big() *big.Int { return new(big.Int).SetUint64(uint64(id)) }

func (id ClaimID) String() string { return strconv.FormatUint(uint64(id), 10) }
func (id ClaimID) IsZero() bool   { return id == 0 }
func (id ClaimID) Big() *big.Int  { return new(big.Int).SetUint64(uint64(id)) }

// ParseIdentityID parses a decimal, non-zero identity id.
func ParseIdentityID(s string) (IdentityID, error) {
	n, err := parsePositive(s, "identity id")
	if err != nil {
		return 0, err
	}
	return IdentityID(n), nil
}

// ParseClaimID parses a decimal, non-zero claim id.
func ParseClaimID(s string) (ClaimID, error) {
	n, err := parsePositive(s, "claim id")
	if err != nil {
		return 0, err
	}
	return ClaimID(n), nil
}

func parsePositive(s, what string) (uint64, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	if len(s) > maxInputLen {
		return 0, dErrors.New(dErrors.CodeInvalidInput, what+" is too long")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	if n == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be zero")
	}
	return n, nil
}

// ParseAddress parses a 0x-prefixed hex address and rejects the zero address.
func ParseAddress(s string) (common.Address, error) {
	addr, err := ParseOptionalAddress(s)
	if err != nil {
		return common.Address{}, err
	}
	if addr == (common.Address{}) {
		return common.Address{}, dErrors.New(dErrors.CodeInvalidInput, "address cannot be zero")
	}
	return addr, nil
}

// ParseOptionalAddress parses an address where the empty string and the zero address both mean
// "unset" (for example a cleared recovery address).
func ParseOptionalAddress(s string) (common.Address, error) {
	if s == "" {
		return common.Address{}, nil
	}
	if len(s) > maxInputLen || !common.IsHexAddress(s) || len(s) != 42 {
		return common.Address{}, dErrors.New(dErrors.CodeInvalidInput, "invalid address")
	}
	return common.HexToAddress(s), nil
}

// ParseHash parses a 0x-prefixed 32-byte hex value. The zero hash is accepted.
func ParseHash(s string) (common.Hash, error) {
	if len(s) != 66 || s[:2] != "0x" && s[:2] != "0X" {
		return common.Hash{}, dErrors.New(dErrors.CodeInvalidInput, "invalid 32-byte hex value")
	}
	for _, c := range s[2:] {
		if !isHex(c) {
			return common.Hash{}, dErrors.New(dErrors.CodeInvalidInput, "invalid 32-byte hex value")
		}
	}
	return common.HexToHash(s), nil
}

// ParseUID parses a schema or attestation uid. Unlike ParseHash the zero value is rejected.
func ParseUID(s string) (common.Hash, error) {
	h, err := ParseHash(s)
	if err != nil {
		return common.Hash{}, err
	}
	if h == (common.Hash{}) {
		return common.Hash{}, dErrors.New(dErrors.CodeInvalidInput, "uid cannot be zero")
	}
	return h, nil
}

func isHex(c rune) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
