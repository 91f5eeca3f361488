package handler

import (
	"provenance/internal/provenance/models"
)

type ClaimResponse struct {
	ID           string `json:"id"`
	OriginatorID string `json:"originator_id"`
	RegistrarID  string `json:"registrar_id"`
	ContentHash  string `json:"content_hash"`
	NftContract  string `json:"nft_contract,omitempty"`
	NftTokenID   string `json:"nft_token_id,omitempty"`
	BlockNumber  uint64 `json:"block_number"`
}

func toClaimResponse(c models.Claim) ClaimResponse {
	resp := ClaimResponse{
		ID:           c.ID.String(),
		OriginatorID: c.OriginatorID.String(),
		RegistrarID:  c.RegistrarID.String(),
		ContentHash:  c.ContentHash.Hex(),
		BlockNumber:  c.BlockNumber,
	}
	if c.HasNft() {
		resp.NftContract = c.NftContract.Hex()
		resp.NftTokenID = c.NftTokenID.String()
	}
	return resp
}

type RegisterResponse struct {
	ID string `json:"id"`
}

type FeeResponse struct {
	Fee string `json:"fee"`
}
