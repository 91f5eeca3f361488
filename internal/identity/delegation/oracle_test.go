package delegation

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provenance/internal/ledger"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

type identities map[common.Address]domain.IdentityID

func (m identities) IDOf(_ context.Context, addr common.Address) domain.IdentityID {
	return m[addr]
}

var (
	alice    = common.HexToAddress("0xa1")
	stranger = common.HexToAddress("0xff")
	gateway  = common.HexToAddress("0x9a")
	other    = common.HexToAddress("0x9b")
)

func newDirectory() *Directory {
	return NewDirectory(ledger.New(), common.HexToAddress("0xde"), identities{alice: 1})
}

func TestDelegateScopes(t *testing.T) {
	d := newDirectory()
	ctx := requestcontext.WithCaller(context.Background(), alice)

	require.NoError(t, d.Delegate(ctx, 2, gateway, RightsAttest))

	check := func(actor domain.IdentityID, contract common.Address, rights common.Hash) bool {
		ok, err := d.CheckDelegate(context.Background(), actor, 1, contract, rights)
		require.NoError(t, err)
		return ok
	}
	assert.True(t, check(2, gateway, RightsAttest))
	assert.False(t, check(2, gateway, RightsProvenance), "other scope")
	assert.False(t, check(2, other, RightsAttest), "other contract")
	assert.False(t, check(3, gateway, RightsAttest), "other actor")

	require.NoError(t, d.Delegate(ctx, 3, common.Address{}, RightsAll))
	assert.True(t, check(3, other, RightsProvenance), "wildcard contract and all rights")

	require.NoError(t, d.Revoke(ctx, 2, gateway, RightsAttest))
	assert.False(t, check(2, gateway, RightsAttest))
}

func TestDelegateRequiresIdentity(t *testing.T) {
	d := newDirectory()

	err := d.Delegate(requestcontext.WithCaller(context.Background(), stranger), 2, gateway, RightsAttest)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeHasNoID))

	err = d.Delegate(requestcontext.WithCaller(context.Background(), alice), 0, gateway, RightsAttest)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
