package registry

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"provenance/internal/attestation/models"
)

// UID derives the attestation uid as keccak256 of the packed
// (schema, time, expirationTime, originator, registrar, revocable, data).
// Identity ids are packed as uint256.
func UID(att models.Attestation) common.Hash {
	buf := make([]byte, 0, 32+8+8+32+32+1+len(att.Data))
	buf = append(buf, att.Schema.Bytes()...)
	buf = binary.BigEndian.AppendUint64(buf, att.Time)
	buf = binary.BigEndian.AppendUint64(buf, att.ExpirationTime)
	buf = append(buf, common.BigToHash(att.Originator.Big()).Bytes()...)
	buf = append(buf, common.BigToHash(att.Registrar.Big()).Bytes()...)
	if att.Revocable {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = append(buf, att.Data...)
	return crypto.Keccak256Hash(buf)
}
