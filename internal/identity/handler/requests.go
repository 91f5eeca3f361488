package handler

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

// maxSignatureLen bounds wrapped (ERC-6492) signatures, which carry deploy calldata.
const maxSignatureLen = 8 * 1024

func parseSignature(raw, field string) ([]byte, error) {
	if len(raw) > 2*maxSignatureLen+2 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, field+" is too long")
	}
	sig, err := hexutil.Decode(raw)
	if err != nil || len(sig) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, field+" must be 0x-prefixed hex")
	}
	return sig, nil
}

// RegisterRequest is the body of POST /v1/identities/register.
type RegisterRequest struct {
	Custody   string `json:"custody"`
	Username  string `json:"username"`
	Recovery  string `json:"recovery"`
	Deadline  uint64 `json:"deadline"`
	Signature string `json:"signature"`

	custody  common.Address
	recovery common.Address
	sig      []byte
}

func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	var err error
	if r.custody, err = domain.ParseAddress(strings.TrimSpace(r.Custody)); err != nil {
		return err
	}
	if r.recovery, err = domain.ParseOptionalAddress(strings.TrimSpace(r.Recovery)); err != nil {
		return err
	}
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return dErrors.New(dErrors.CodeInvalidUsername, "username is required")
	}
	if r.sig, err = parseSignature(r.Signature, "signature"); err != nil {
		return err
	}
	return nil
}

// TransferRequest is the body of POST /v1/identities/transfer. Both the current and the
// new custody address sign.
type TransferRequest struct {
	From          string `json:"from"`
	To            string `json:"to"`
	FromDeadline  uint64 `json:"from_deadline"`
	FromSignature string `json:"from_signature"`
	ToDeadline    uint64 `json:"to_deadline"`
	ToSignature   string `json:"to_signature"`

	from, to       common.Address
	fromSig, toSig []byte
}

func (r *TransferRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	var err error
	if r.from, err = domain.ParseAddress(strings.TrimSpace(r.From)); err != nil {
		return err
	}
	if r.to, err = domain.ParseAddress(strings.TrimSpace(r.To)); err != nil {
		return err
	}
	if r.fromSig, err = parseSignature(r.FromSignature, "from_signature"); err != nil {
		return err
	}
	if r.toSig, err = parseSignature(r.ToSignature, "to_signature"); err != nil {
		return err
	}
	return nil
}
