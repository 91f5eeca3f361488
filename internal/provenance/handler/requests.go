package handler

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

// parseTokenID accepts decimal or 0x-prefixed hex. Empty means token 0.
func parseTokenID(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return new(big.Int), nil
	}
	v, ok := math.ParseBig256(raw)
	if !ok || v.Sign() < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "nft_token_id must be a uint256")
	}
	return v, nil
}

func parseSignature(raw string) ([]byte, error) {
	sig, err := hexutil.Decode(strings.TrimSpace(raw))
	if err != nil || len(sig) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "signature must be 0x-prefixed hex")
	}
	return sig, nil
}

// RegisterRequest is the body of POST /v1/provenance/claims. The originator signs; the
// relayer submits and the originator is recorded as registrar.
type RegisterRequest struct {
	OriginatorID string `json:"originator_id"`
	ContentHash  string `json:"content_hash"`
	NftContract  string `json:"nft_contract"`
	NftTokenID   string `json:"nft_token_id"`
	Deadline     uint64 `json:"deadline"`
	Signature    string `json:"signature"`

	originator  domain.IdentityID
	contentHash common.Hash
	nftContract common.Address
	nftTokenID  *big.Int
	sig         []byte
}

func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	var err error
	if r.originator, err = domain.ParseIdentityID(strings.TrimSpace(r.OriginatorID)); err != nil {
		return err
	}
	if r.contentHash, err = domain.ParseHash(strings.TrimSpace(r.ContentHash)); err != nil {
		return err
	}
	if r.nftContract, err = domain.ParseOptionalAddress(strings.TrimSpace(r.NftContract)); err != nil {
		return err
	}
	if r.nftTokenID, err = parseTokenID(r.NftTokenID); err != nil {
		return err
	}
	if r.sig, err = parseSignature(r.Signature); err != nil {
		return err
	}
	return nil
}

// AssignNftRequest is the body of POST /v1/provenance/claims/{id}/nft.
type AssignNftRequest struct {
	NftContract string `json:"nft_contract"`
	NftTokenID  string `json:"nft_token_id"`
	Deadline    uint64 `json:"deadline"`
	Signature   string `json:"signature"`

	nftContract common.Address
	nftTokenID  *big.Int
	sig         []byte
}

func (r *AssignNftRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	var err error
	if r.nftContract, err = domain.ParseAddress(strings.TrimSpace(r.NftContract)); err != nil {
		return err
	}
	if r.nftTokenID, err = parseTokenID(r.NftTokenID); err != nil {
		return err
	}
	if r.sig, err = parseSignature(r.Signature); err != nil {
		return err
	}
	return nil
}
