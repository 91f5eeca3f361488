package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"provenance/pkg/domain"
)

// Claim records that OriginatorID authored the content hashed to ContentHash.
// Invariants: (OriginatorID, ContentHash) and (NftContract, NftTokenID) each map to at most
// one claim; the NFT binding goes from unbound to bound once and never changes again.
type Claim struct {
	ID           domain.ClaimID
	OriginatorID domain.IdentityID
	RegistrarID  domain.IdentityID
	ContentHash  common.Hash
	NftContract  common.Address
	NftTokenID   *big.Int
	BlockNumber  uint64
}

func (c Claim) Exists() bool {
	return !c.ID.IsZero()
}

// Clone returns a copy that shares no memory with c.
func (c Claim) Clone() Claim {
	if c.NftTokenID != nil {
		c.NftTokenID = new(big.Int).Set(c.NftTokenID)
	}
	return c
}

// HasNft reports whether an NFT is bound. The contract address alone decides, since token
// id 0 is a valid token.
func (c Claim) HasNft() bool {
	return c.NftContract != (common.Address{})
}

// NftKey identifies one token of one collection.
type NftKey struct {
	Contract common.Address
	TokenID  common.Hash
}

// NewNftKey builds the lookup key of (contract, tokenID). A nil tokenID is token 0.
func NewNftKey(contract common.Address, tokenID *big.Int) NftKey {
	if tokenID == nil {
		tokenID = new(big.Int)
	}
	return NftKey{Contract: contract, TokenID: common.BigToHash(tokenID)}
}

// ContentKey identifies one originator's claim on one content hash.
type ContentKey struct {
	OriginatorID domain.IdentityID
	ContentHash  common.Hash
}

// RegisterParams is the input of ProvenanceRegistry.Register. A zero NftContract means
// no NFT; NftTokenID must then be nil or zero.
type RegisterParams struct {
	OriginatorID domain.IdentityID
	RegistrarID  domain.IdentityID
	ContentHash  common.Hash
	NftContract  common.Address
	NftTokenID   *big.Int
}
