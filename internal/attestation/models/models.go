// Package models holds the schema and attestation records and the request shapes accepted by
// the AttestationRegistry.
package models

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"provenance/pkg/domain"
)

// Schema describes the payload format of a family of attestations. A zero UID means the
// schema does not exist.
type Schema struct {
	UID       common.Hash    `json:"uid"`
	Resolver  common.Address `json:"resolver"`
	Revocable bool           `json:"revocable"`
	Schema    string         `json:"schema"`
}

func (s Schema) Exists() bool {
	return s.UID != (common.Hash{})
}

// HasResolver reports whether attestations under s are settled by a resolver.
func (s Schema) HasResolver() bool {
	return s.Resolver != (common.Address{})
}

// Attestation is one statement made by Originator under Schema.
// ExpirationTime 0 means it never expires; RevocationTime 0 means it is not revoked.
type Attestation struct {
	UID            common.Hash       `json:"uid"`
	Schema         common.Hash       `json:"schema"`
	Time           uint64            `json:"time"`
	ExpirationTime uint64            `json:"expiration_time"`
	RevocationTime uint64            `json:"revocation_time"`
	Originator     domain.IdentityID `json:"originator"`
	Registrar      domain.IdentityID `json:"registrar"`
	Revocable      bool              `json:"revocable"`
	Data           []byte            `json:"data"`
}

// Clone returns a copy that shares no memory with a.
func (a Attestation) Clone() Attestation {
	a.Data = bytes.Clone(a.Data)
	return a
}

func (a Attestation) Exists() bool {
	return a.UID != (common.Hash{})
}

func (a Attestation) Revoked() bool {
	return a.RevocationTime != 0
}

// AttestationRequestData is one attestation to create. Value is forwarded to the schema
// resolver; nil means zero.
type AttestationRequestData struct {
	Originator     domain.IdentityID
	ExpirationTime uint64
	Revocable      bool
	Data           []byte
	Value          *big.Int
}

type AttestationRequest struct {
	Schema common.Hash
	Data   AttestationRequestData
}

// DelegatedAttestationRequest is an attestation signed by Attester and submitted by anyone.
// The registrar is Attester's identity.
type DelegatedAttestationRequest struct {
	Schema    common.Hash
	Data      AttestationRequestData
	Signature []byte
	Attester  common.Address
	Deadline  uint64
}

type MultiAttestationRequest struct {
	Schema common.Hash
	Data   []AttestationRequestData
}

// MultiDelegatedAttestationRequest carries one signature per data item, each consuming one
// of Attester's nonces in order.
type MultiDelegatedAttestationRequest struct {
	Schema     common.Hash
	Data       []AttestationRequestData
	Signatures [][]byte
	Attester   common.Address
	Deadline   uint64
}

type RevocationRequestData struct {
	UID   common.Hash
	Value *big.Int
}

type RevocationRequest struct {
	Schema common.Hash
	Data   RevocationRequestData
}

type DelegatedRevocationRequest struct {
	Schema    common.Hash
	Data      RevocationRequestData
	Signature []byte
	Revoker   common.Address
	Deadline  uint64
}

type MultiRevocationRequest struct {
	Schema common.Hash
	Data   []RevocationRequestData
}

type MultiDelegatedRevocationRequest struct {
	Schema     common.Hash
	Data       []RevocationRequestData
	Signatures [][]byte
	Revoker    common.Address
	Deadline   uint64
}

// ValueOf returns v, or zero when v is nil.
func ValueOf(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
