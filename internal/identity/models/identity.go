package models

import (
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

// Identity is an account in the IdentityRegistry.
// Invariants: ID is never zero once issued and never reused; Custody is never the zero
// address; Username is unique ignoring case. Recovery may be zero (no recovery).
type Identity struct {
	ID       domain.IdentityID
	Custody  common.Address
	Username string
	Recovery common.Address
}

// Exists reports whether the identity was found.
func (i Identity) Exists() bool {
	return !i.ID.IsZero()
}

// HasRecovery reports whether a recovery address is configured.
func (i Identity) HasRecovery() bool {
	return i.Recovery != (common.Address{})
}

// UsernameHash is the uniqueness key of a username: keccak256 of its lower-cased form.
func UsernameHash(username string) common.Hash {
	return crypto.Keccak256Hash([]byte(strings.ToLower(username)))
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,31}$`)

// ValidateUsername enforces the accepted username format: 1 to 32 characters, letters,
// digits, '_', '.', '-', starting with a letter or digit.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return dErrors.New(dErrors.CodeInvalidUsername, "username must be 1-32 characters of [A-Za-z0-9_.-] starting with a letter or digit")
	}
	return nil
}

// BulkRegisterData is one identity imported from a prior deployment.
type BulkRegisterData struct {
	ID       domain.IdentityID
	Custody  common.Address
	Username string
	Recovery common.Address
}
