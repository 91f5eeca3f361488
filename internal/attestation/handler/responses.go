package handler

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"provenance/internal/attestation/models"
)

type SchemaResponse struct {
	UID       string `json:"uid"`
	Resolver  string `json:"resolver"`
	Revocable bool   `json:"revocable"`
	Schema    string `json:"schema"`
}

func toSchemaResponse(s models.Schema) SchemaResponse {
	return SchemaResponse{
		UID:       s.UID.Hex(),
		Resolver:  s.Resolver.Hex(),
		Revocable: s.Revocable,
		Schema:    s.Schema,
	}
}

type AttestationResponse struct {
	UID            string `json:"uid"`
	Schema         string `json:"schema"`
	Time           uint64 `json:"time"`
	ExpirationTime uint64 `json:"expiration_time"`
	RevocationTime uint64 `json:"revocation_time"`
	OriginatorID   string `json:"originator_id"`
	RegistrarID    string `json:"registrar_id"`
	Revocable      bool   `json:"revocable"`
	Data           string `json:"data"`
	Valid          bool   `json:"valid"`
}

func toAttestationResponse(a models.Attestation, valid bool) AttestationResponse {
	return AttestationResponse{
		UID:            a.UID.Hex(),
		Schema:         a.Schema.Hex(),
		Time:           a.Time,
		ExpirationTime: a.ExpirationTime,
		RevocationTime: a.RevocationTime,
		OriginatorID:   a.Originator.String(),
		RegistrarID:    a.Registrar.String(),
		Revocable:      a.Revocable,
		Data:           hexutil.Encode(a.Data),
		Valid:          valid,
	}
}

type UIDResponse struct {
	UID string `json:"uid"`
}

type TimestampResponse struct {
	Data      string `json:"data,omitempty"`
	Timestamp uint64 `json:"timestamp"`
}

type NonceResponse struct {
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
}
