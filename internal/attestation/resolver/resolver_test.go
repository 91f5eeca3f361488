package resolver

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provenance/internal/attestation/models"
	"provenance/internal/ledger"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/sentinel"
	"provenance/pkg/requestcontext"
)

var (
	ownerAddr     = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	allowlistAddr = common.HexToAddress("0x0000000000000000000000000000000000004b01")
)

func as(addr common.Address) context.Context {
	return requestcontext.WithCaller(context.Background(), addr)
}

func TestDirectory(t *testing.T) {
	l := ledger.New()
	dir := NewDirectory(l)
	paid := NewPaidResolver(big.NewInt(3))
	require.NoError(t, dir.Deploy(context.Background(), allowlistAddr, paid))

	t.Run("deployed resolver is returned", func(t *testing.T) {
		assert.Same(t, paid, dir.Lookup(context.Background(), allowlistAddr))
	})

	t.Run("address cannot be reused", func(t *testing.T) {
		err := dir.Deploy(context.Background(), allowlistAddr, paid)
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("empty address rejects everything", func(t *testing.T) {
		r := dir.Lookup(context.Background(), common.HexToAddress("0x99"))
		assert.False(t, r.IsPayable())
		ok, err := r.Attest(context.Background(), models.Attestation{}, new(big.Int))
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = r.MultiRevoke(context.Background(), []models.Attestation{{}}, []*big.Int{new(big.Int)})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestAllowlistResolver(t *testing.T) {
	l := ledger.New()
	r := NewAllowlistResolver(l, allowlistAddr, ownerAddr)
	listed := models.Attestation{Registrar: domain.IdentityID(1)}
	unlisted := models.Attestation{Registrar: domain.IdentityID(2)}

	t.Run("only the owner edits the list", func(t *testing.T) {
		err := r.Allow(as(common.HexToAddress("0xa1")), 1, true)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOnlyOwner))
	})

	require.NoError(t, r.Allow(as(ownerAddr), 1, true))

	t.Run("accepts listed registrars", func(t *testing.T) {
		ok, err := r.Attest(context.Background(), listed, nil)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.MultiAttest(context.Background(), []models.Attestation{listed, unlisted}, []*big.Int{nil, nil})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("revocations always pass", func(t *testing.T) {
		ok, err := r.Revoke(context.Background(), unlisted, nil)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("removal", func(t *testing.T) {
		require.NoError(t, r.Allow(as(ownerAddr), 1, false))
		assert.False(t, r.IsAllowed(context.Background(), 1))
	})
}

func TestPaidResolver(t *testing.T) {
	r := NewPaidResolver(big.NewInt(3))
	assert.True(t, r.IsPayable())

	ok, _ := r.Attest(context.Background(), models.Attestation{}, big.NewInt(3))
	assert.True(t, ok)
	ok, _ = r.Attest(context.Background(), models.Attestation{}, big.NewInt(4))
	assert.False(t, ok)
	ok, _ = r.MultiAttest(context.Background(), []models.Attestation{{}, {}}, []*big.Int{big.NewInt(3)})
	assert.False(t, ok, "values must line up with attestations")
	ok, _ = r.Revoke(context.Background(), models.Attestation{}, nil)
	assert.True(t, ok)
	ok, _ = r.MultiRevoke(context.Background(), []models.Attestation{{}}, []*big.Int{big.NewInt(1)})
	assert.False(t, ok)
}
