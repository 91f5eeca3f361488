// Package signature verifies EIP-712 authorizations for signature-delegated calls.
//
// Supported signers are plain secp256k1 keys (65-byte r,s,v signatures), smart-contract
// accounts (ERC-1271) and smart accounts that are not deployed yet (ERC-6492 wrapped
// signatures carrying the factory call that deploys them).
package signature

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

var domainType = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

// Domain is the EIP-712 separator of one component.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// Digest hashes message under primaryType with the given field layout.
func (d Domain) Digest(primaryType string, fields []apitypes.Type, message apitypes.TypedDataMessage) (common.Hash, error) {
	chainID := d.ChainID
	if chainID == nil {
		chainID = new(big.Int)
	}
	td := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": domainType,
			primaryType:    fields,
		},
		PrimaryType: primaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              d.Name,
			Version:           d.Version,
			ChainId:           (*math.HexOrDecimal256)(chainID),
			VerifyingContract: d.VerifyingContract.Hex(),
		},
		Message: message,
	}
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return common.Hash{}, fmt.Errorf("hash %s typed data: %w", primaryType, err)
	}
	return common.BytesToHash(hash), nil
}

// Uint converts a uint64 to the *big.Int form typed data expects.
func Uint(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
