package deployment

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provenance/internal/events"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

var owner = common.HexToAddress("0x00000000000000000000000000000000000000f0")

func TestNewRequiresOwner(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}

func TestNewLinksComponents(t *testing.T) {
	ctx := context.Background()
	store := events.NewInMemoryStore()
	d, err := New(ctx, Config{Owner: owner, Publisher: events.NewPublisher(store)})
	require.NoError(t, err)

	assert.Equal(t, d.Addresses.IdentityGateway, d.Identities.Gateway(ctx))
	assert.Equal(t, d.Addresses.ProvenanceGateway, d.Provenance.Gateway(ctx))
	assert.False(t, d.Provenance.GatewayFrozen(ctx))

	evs, err := store.List(ctx, events.Filter{})
	require.NoError(t, err)
	kinds := make([]events.Kind, 0, len(evs))
	for _, e := range evs {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, events.KindGatewayChanged)
	assert.Contains(t, kinds, events.KindDelegationOracleChanged)
}

func TestAddressesAreDistinctAndStable(t *testing.T) {
	a := addressesFor(owner)
	b := addressesFor(owner)
	assert.Equal(t, a, b)

	seen := map[common.Address]bool{}
	for _, addr := range []common.Address{
		a.IdentityRegistry, a.IdentityGateway, a.Delegation, a.ProvenanceRegistry,
		a.ProvenanceGateway, a.SchemaRegistry, a.AttestationRegistry, a.WalletFactory,
		a.AllowlistResolver, a.PaidResolver,
	} {
		assert.False(t, seen[addr], "duplicate address %s", addr.Hex())
		seen[addr] = true
	}

	other := addressesFor(common.HexToAddress("0x01"))
	assert.NotEqual(t, a.IdentityRegistry, other.IdentityRegistry)
}

func TestComponent(t *testing.T) {
	ctx := context.Background()
	d, err := New(ctx, Config{Owner: owner})
	require.NoError(t, err)

	for _, name := range []string{
		ComponentIdentityRegistry, ComponentIdentityGateway, ComponentProvenanceRegistry,
		ComponentProvenanceGateway, ComponentSchemaRegistry, ComponentAttestationRegistry,
	} {
		c, ok := d.Component(name)
		require.True(t, ok, name)
		assert.Equal(t, owner, c.Owner(ctx), name)
		assert.False(t, c.Paused(ctx), name)
	}

	c, ok := d.Component(ComponentSchemaRegistry)
	require.True(t, ok)
	assert.Equal(t, d.Addresses.SchemaRegistry, c.Address())

	_, ok = d.Component("nope")
	assert.False(t, ok)
}

func TestNewDeploysBundledContracts(t *testing.T) {
	ctx := context.Background()
	d, err := New(ctx, Config{Owner: owner, ResolverPrice: big.NewInt(7)})
	require.NoError(t, err)

	assert.Same(t, d.Allowlist, d.Resolvers.Lookup(ctx, d.Addresses.AllowlistResolver))
	assert.Same(t, d.PaidResolver, d.Resolvers.Lookup(ctx, d.Addresses.PaidResolver))
	assert.Equal(t, big.NewInt(7), d.PaidResolver.Price())
	assert.Equal(t, d.Addresses.WalletFactory, d.WalletFactory.Address)
}

func TestCollections(t *testing.T) {
	ctx := context.Background()
	d, err := New(ctx, Config{Owner: owner})
	require.NoError(t, err)
	collection := common.HexToAddress("0xc0")
	minter := common.HexToAddress("0xd0")
	alice := common.HexToAddress("0xa1")

	err = d.DeployCollection(requestcontext.WithCaller(ctx, alice), collection, minter)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeOnlyOwner))

	asOwner := requestcontext.WithCaller(ctx, owner)
	require.NoError(t, d.DeployCollection(asOwner, collection, minter))
	err = d.DeployCollection(asOwner, collection, minter)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	err = d.MintToken(asOwner, collection, alice, big.NewInt(1))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAccessDenied))
	err = d.MintToken(requestcontext.WithCaller(ctx, minter), collection, alice, big.NewInt(-1))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidNft))
	err = d.MintToken(requestcontext.WithCaller(ctx, minter), common.HexToAddress("0xc1"), alice, big.NewInt(1))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidNft))

	require.NoError(t, d.MintToken(requestcontext.WithCaller(ctx, minter), collection, alice, big.NewInt(1)))
	holder, err := d.NFTs.OwnerOf(ctx, collection, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, alice, holder)
}
