package gateway

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"provenance/internal/signature"
	"provenance/pkg/domain"
)

var (
	registerFields = []apitypes.Type{
		{Name: "originatorId", Type: "uint256"},
		{Name: "contentHash", Type: "bytes32"},
		{Name: "nftContract", Type: "address"},
		{Name: "nftTokenId", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	}
	assignNftFields = []apitypes.Type{
		{Name: "claimId", Type: "uint256"},
		{Name: "nftContract", Type: "address"},
		{Name: "nftTokenId", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	}
)

// Digests builds the EIP-712 digests accepted by the provenance gateway.
type Digests struct {
	Domain signature.Domain
}

func (d Digests) Register(originator domain.IdentityID, contentHash common.Hash, nftContract common.Address, nftTokenID *big.Int, nonce, deadline uint64) (common.Hash, error) {
	return d.Domain.Digest("Register", registerFields, apitypes.TypedDataMessage{
		"originatorId": originator.Big(),
		"contentHash":  contentHash.Bytes(),
		"nftContract":  nftContract.Hex(),
		"nftTokenId":   tokenOrZero(nftTokenID),
		"nonce":        signature.Uint(nonce),
		"deadline":     signature.Uint(deadline),
	})
}

func (d Digests) AssignNft(claimID domain.ClaimID, nftContract common.Address, nftTokenID *big.Int, nonce, deadline uint64) (common.Hash, error) {
	return d.Domain.Digest("AssignNft", assignNftFields, apitypes.TypedDataMessage{
		"claimId":     claimID.Big(),
		"nftContract": nftContract.Hex(),
		"nftTokenId":  tokenOrZero(nftTokenID),
		"nonce":       signature.Uint(nonce),
		"deadline":    signature.Uint(deadline),
	})
}

func tokenOrZero(tokenID *big.Int) *big.Int {
	if tokenID == nil {
		return new(big.Int)
	}
	return tokenID
}
