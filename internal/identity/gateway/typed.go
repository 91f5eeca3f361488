package gateway

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"provenance/internal/identity/models"
	"provenance/internal/signature"
	"provenance/pkg/domain"
)

// Typed-data layouts signed for delegated calls. Each ends with (nonce, deadline).
var (
	registerFields = []apitypes.Type{
		{Name: "custody", Type: "address"},
		{Name: "usernameHash", Type: "bytes32"},
		{Name: "recovery", Type: "address"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	}
	transferFields = []apitypes.Type{
		{Name: "id", Type: "uint256"},
		{Name: "to", Type: "address"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	}
	changeUsernameFields = []apitypes.Type{
		{Name: "id", Type: "uint256"},
		{Name: "usernameHash", Type: "bytes32"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	}
	transferUsernameFields = []apitypes.Type{
		{Name: "fromId", Type: "uint256"},
		{Name: "toId", Type: "uint256"},
		{Name: "newFromUsernameHash", Type: "bytes32"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	}
	changeRecoveryFields = []apitypes.Type{
		{Name: "id", Type: "uint256"},
		{Name: "recovery", Type: "address"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	}
)

const (
	typeRegister                 = "Register"
	typeTransfer                 = "Transfer"
	typeTransferAndClearRecovery = "TransferAndClearRecovery"
	typeChangeUsername           = "ChangeUsername"
	typeTransferUsername         = "TransferUsername"
	typeChangeRecovery           = "ChangeRecovery"
)

// Digests is the client-side view of the typed data this gateway accepts. Signers build the
// digest with their current nonce and sign it.
type Digests struct {
	Domain signature.Domain
}

func (d Digests) digest(primaryType string, fields []apitypes.Type, msg apitypes.TypedDataMessage, nonce, deadline uint64) (common.Hash, error) {
	msg["nonce"] = signature.Uint(nonce)
	msg["deadline"] = signature.Uint(deadline)
	return d.Domain.Digest(primaryType, fields, msg)
}

func (d Digests) Register(custody common.Address, username string, recovery common.Address, nonce, deadline uint64) (common.Hash, error) {
	return d.digest(typeRegister, registerFields, apitypes.TypedDataMessage{
		"custody":      custody.Hex(),
		"usernameHash": models.UsernameHash(username).Bytes(),
		"recovery":     recovery.Hex(),
	}, nonce, deadline)
}

func (d Digests) Transfer(id domain.IdentityID, to common.Address, nonce, deadline uint64) (common.Hash, error) {
	return d.digest(typeTransfer, transferFields, apitypes.TypedDataMessage{
		"id": id.Big(),
		"to": to.Hex(),
	}, nonce, deadline)
}

func (d Digests) TransferAndClearRecovery(id domain.IdentityID, to common.Address, nonce, deadline uint64) (common.Hash, error) {
	return d.digest(typeTransferAndClearRecovery, transferFields, apitypes.TypedDataMessage{
		"id": id.Big(),
		"to": to.Hex(),
	}, nonce, deadline)
}

func (d Digests) ChangeUsername(id domain.IdentityID, username string, nonce, deadline uint64) (common.Hash, error) {
	return d.digest(typeChangeUsername, changeUsernameFields, apitypes.TypedDataMessage{
		"id":           id.Big(),
		"usernameHash": models.UsernameHash(username).Bytes(),
	}, nonce, deadline)
}

func (d Digests) TransferUsername(fromID, toID domain.IdentityID, newFromUsername string, nonce, deadline uint64) (common.Hash, error) {
	return d.digest(typeTransferUsername, transferUsernameFields, apitypes.TypedDataMessage{
		"fromId":              fromID.Big(),
		"toId":                toID.Big(),
		"newFromUsernameHash": models.UsernameHash(newFromUsername).Bytes(),
	}, nonce, deadline)
}

func (d Digests) ChangeRecovery(id domain.IdentityID, recovery common.Address, nonce, deadline uint64) (common.Hash, error) {
	return d.digest(typeChangeRecovery, changeRecoveryFields, apitypes.TypedDataMessage{
		"id":       id.Big(),
		"recovery": recovery.Hex(),
	}, nonce, deadline)
}
