package registry

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"provenance/internal/attestation/models"
	"provenance/internal/signature"
)

var (
	attestFields = []apitypes.Type{
		{Name: "originator", Type: "uint256"},
		{Name: "schema", Type: "bytes32"},
		{Name: "expirationTime", Type: "uint64"},
		{Name: "revocable", Type: "bool"},
		{Name: "dataHash", Type: "bytes32"},
		{Name: "value", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	}
	revokeFields = []apitypes.Type{
		{Name: "schema", Type: "bytes32"},
		{Name: "uid", Type: "bytes32"},
		{Name: "value", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	}
)

// Digests builds the EIP-712 digests signed for delegated attestations and revocations.
type Digests struct {
	Domain signature.Domain
}

func (d Digests) Attest(schema common.Hash, data models.AttestationRequestData, nonce, deadline uint64) (common.Hash, error) {
	return d.Domain.Digest("Attest", attestFields, apitypes.TypedDataMessage{
		"originator":     data.Originator.Big(),
		"schema":         schema.Bytes(),
		"expirationTime": new(big.Int).SetUint64(data.ExpirationTime),
		"revocable":      data.Revocable,
		"dataHash":       crypto.Keccak256(data.Data),
		"value":          models.ValueOf(data.Value),
		"nonce":          signature.Uint(nonce),
		"deadline":       signature.Uint(deadline),
	})
}

func (d Digests) Revoke(schema common.Hash, data models.RevocationRequestData, nonce, deadline uint64) (common.Hash, error) {
	return d.Domain.Digest("Revoke", revokeFields, apitypes.TypedDataMessage{
		"schema":   schema.Bytes(),
		"uid":      data.UID.Bytes(),
		"value":    models.ValueOf(data.Value),
		"nonce":    signature.Uint(nonce),
		"deadline": signature.Uint(deadline),
	})
}
