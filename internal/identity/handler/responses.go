package handler

import (
	"provenance/internal/identity/models"
)

type IdentityResponse struct {
	ID       string `json:"id"`
	Custody  string `json:"custody"`
	Username string `json:"username"`
	Recovery string `json:"recovery,omitempty"`
}

func toIdentityResponse(i models.Identity) IdentityResponse {
	resp := IdentityResponse{
		ID:       i.ID.String(),
		Custody:  i.Custody.Hex(),
		Username: i.Username,
	}
	if i.HasRecovery() {
		resp.Recovery = i.Recovery.Hex()
	}
	return resp
}

type RegisterResponse struct {
	ID string `json:"id"`
}

type NonceResponse struct {
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
}
