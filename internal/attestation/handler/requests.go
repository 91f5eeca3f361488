package handler

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"provenance/internal/attestation/models"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

const (
	maxSchemaLen = 4 * 1024
	maxDataLen   = 64 * 1024
)

func parseHex(raw, field string, max int) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0x" {
		return []byte{}, nil
	}
	if len(raw) > 2*max+2 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, field+" is too long")
	}
	b, err := hexutil.Decode(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, field+" must be 0x-prefixed hex")
	}
	return b, nil
}

// RegisterSchemaRequest is the body of POST /v1/schemas.
type RegisterSchemaRequest struct {
	Schema    string `json:"schema"`
	Resolver  string `json:"resolver"`
	Revocable bool   `json:"revocable"`

	resolver common.Address
}

func (r *RegisterSchemaRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	if len(r.Schema) > maxSchemaLen {
		return dErrors.New(dErrors.CodeInvalidInput, "schema is too long")
	}
	var err error
	r.resolver, err = domain.ParseOptionalAddress(strings.TrimSpace(r.Resolver))
	return err
}

// AttestRequest is the body of POST /v1/attestations: an attestation signed by its attester
// and submitted by the relayer.
type AttestRequest struct {
	Schema         string `json:"schema"`
	OriginatorID   string `json:"originator_id"`
	ExpirationTime uint64 `json:"expiration_time"`
	Revocable      bool   `json:"revocable"`
	Data           string `json:"data"`
	Attester       string `json:"attester"`
	Deadline       uint64 `json:"deadline"`
	Signature      string `json:"signature"`

	parsed models.DelegatedAttestationRequest
}

func (r *AttestRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	schema, err := domain.ParseUID(strings.TrimSpace(r.Schema))
	if err != nil {
		return err
	}
	originator, err := domain.ParseIdentityID(strings.TrimSpace(r.OriginatorID))
	if err != nil {
		return err
	}
	attester, err := domain.ParseAddress(strings.TrimSpace(r.Attester))
	if err != nil {
		return err
	}
	data, err := parseHex(r.Data, "data", maxDataLen)
	if err != nil {
		return err
	}
	sig, err := parseHex(r.Signature, "signature", 8*1024)
	if err != nil {
		return err
	}
	if len(sig) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "signature is required")
	}
	r.parsed = models.DelegatedAttestationRequest{
		Schema: schema,
		Data: models.AttestationRequestData{
			Originator:     originator,
			ExpirationTime: r.ExpirationTime,
			Revocable:      r.Revocable,
			Data:           data,
		},
		Signature: sig,
		Attester:  attester,
		Deadline:  r.Deadline,
	}
	return nil
}

// RevokeRequest is the body of POST /v1/attestations/revoke.
type RevokeRequest struct {
	Schema    string `json:"schema"`
	UID       string `json:"uid"`
	Revoker   string `json:"revoker"`
	Deadline  uint64 `json:"deadline"`
	Signature string `json:"signature"`

	parsed models.DelegatedRevocationRequest
}

func (r *RevokeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	schema, err := domain.ParseUID(strings.TrimSpace(r.Schema))
	if err != nil {
		return err
	}
	uid, err := domain.ParseUID(strings.TrimSpace(r.UID))
	if err != nil {
		return err
	}
	revoker, err := domain.ParseAddress(strings.TrimSpace(r.Revoker))
	if err != nil {
		return err
	}
	sig, err := parseHex(r.Signature, "signature", 8*1024)
	if err != nil {
		return err
	}
	if len(sig) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "signature is required")
	}
	r.parsed = models.DelegatedRevocationRequest{
		Schema:    schema,
		Data:      models.RevocationRequestData{UID: uid},
		Signature: sig,
		Revoker:   revoker,
		Deadline:  r.Deadline,
	}
	return nil
}

// TimestampRequest is the body of POST /v1/timestamps.
type TimestampRequest struct {
	Data []string `json:"data"`

	parsed []common.Hash
}

func (r *TimestampRequest) Validate() error {
	if r == nil || len(r.Data) == 0 {
		return dErrors.New(dErrors.CodeInvalidLength, "data is required")
	}
	if len(r.Data) > 256 {
		return dErrors.New(dErrors.CodeInvalidLength, "at most 256 entries per request")
	}
	r.parsed = make([]common.Hash, len(r.Data))
	for i, raw := range r.Data {
		h, err := domain.ParseHash(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		r.parsed[i] = h
	}
	return nil
}
