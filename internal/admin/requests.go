package admin

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

// SetFeeRequest is the body of POST /admin/provenance/fee. Fee is a decimal wei amount.
type SetFeeRequest struct {
	Fee string `json:"fee"`

	fee *big.Int
}

func (r *SetFeeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	fee, ok := new(big.Int).SetString(strings.TrimSpace(r.Fee), 10)
	if !ok || fee.Sign() < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "fee must be a non-negative decimal integer")
	}
	r.fee = fee
	return nil
}

// WithdrawRequest is the body of POST /admin/provenance/withdraw.
type WithdrawRequest struct {
	To string `json:"to"`

	to common.Address
}

func (r *WithdrawRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	var err error
	r.to, err = domain.ParseAddress(strings.TrimSpace(r.To))
	return err
}

// DeployCollectionRequest is the body of POST /admin/nft/collections.
type DeployCollectionRequest struct {
	Address string `json:"address"`
	Minter  string `json:"minter,omitempty"`

	address common.Address
	minter  common.Address
}

func (r *DeployCollectionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	var err error
	if r.address, err = domain.ParseAddress(strings.TrimSpace(r.Address)); err != nil {
		return err
	}
	r.minter, err = domain.ParseOptionalAddress(strings.TrimSpace(r.Minter))
	return err
}

// MintRequest is the body of POST /admin/nft/collections/{address}/mint.
type MintRequest struct {
	To      string `json:"to"`
	TokenID string `json:"token_id"`

	to      common.Address
	tokenID *big.Int
}

func (r *MintRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	var err error
	if r.to, err = domain.ParseAddress(strings.TrimSpace(r.To)); err != nil {
		return err
	}
	id, ok := new(big.Int).SetString(strings.TrimSpace(r.TokenID), 10)
	if !ok || id.Sign() <= 0 {
		return dErrors.New(dErrors.CodeInvalidNft, "token_id must be a positive decimal integer")
	}
	r.tokenID = id
	return nil
}

// AllowRequest is the body of POST /admin/resolvers/allowlist.
type AllowRequest struct {
	IdentityID uint64 `json:"identity_id"`
	Allowed    bool   `json:"allowed"`

	id domain.IdentityID
}

func (r *AllowRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	if r.IdentityID == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "identity_id is required")
	}
	r.id = domain.IdentityID(r.IdentityID)
	return nil
}
