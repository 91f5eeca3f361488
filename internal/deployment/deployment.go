// Package deployment assembles a complete registry deployment on one ledger: the identity
// registry and gateway, the delegation directory, the provenance registry and gateway,
// the schema registry, the bundled resolvers, the attestation registry and a contract
// wallet factory for pre-deploy signatures.
package deployment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.opentelemetry.io/otel"

	"provenance/internal/access"
	attregistry "provenance/internal/attestation/registry"
	"provenance/internal/attestation/resolver"
	"provenance/internal/attestation/schema"
	"provenance/internal/identity/delegation"
	idgateway "provenance/internal/identity/gateway"
	idregistry "provenance/internal/identity/registry"
	"provenance/internal/ledger"
	"provenance/internal/platform/metrics"
	provgateway "provenance/internal/provenance/gateway"
	"provenance/internal/provenance/nft"
	provregistry "provenance/internal/provenance/registry"
	"provenance/internal/signature"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/sentinel"
	"provenance/pkg/requestcontext"
)

const tracerName = "provenance"

// Component names accepted by Deployment.Component.
const (
	ComponentIdentityRegistry    = "identity-registry"
	ComponentIdentityGateway     = "identity-gateway"
	ComponentProvenanceRegistry  = "provenance-registry"
	ComponentProvenanceGateway   = "provenance-gateway"
	ComponentSchemaRegistry      = "schema-registry"
	ComponentAttestationRegistry = "attestation-registry"
)

// Config describes one deployment.
type Config struct {
	Owner           common.Address
	ChainID         *big.Int
	RegistrationFee *big.Int
	// ResolverPrice is charged per attestation by the bundled paid resolver.
	ResolverPrice  *big.Int
	MigrationGrace time.Duration
	Publisher      ledger.EventPublisher
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Clock          func() time.Time
}

// Addresses lists where each component is deployed. Addresses follow the CREATE scheme
// from the owner, so the same owner always yields the same layout.
type Addresses struct {
	IdentityRegistry    common.Address
	IdentityGateway     common.Address
	Delegation          common.Address
	ProvenanceRegistry  common.Address
	ProvenanceGateway   common.Address
	SchemaRegistry      common.Address
	AttestationRegistry common.Address
	WalletFactory       common.Address
	AllowlistResolver   common.Address
	PaidResolver        common.Address
}

func addressesFor(owner common.Address) Addresses {
	at := func(n uint64) common.Address { return crypto.CreateAddress(owner, n) }
	return Addresses{
		IdentityRegistry:    at(0),
		IdentityGateway:     at(1),
		Delegation:          at(2),
		ProvenanceRegistry:  at(3),
		ProvenanceGateway:   at(4),
		SchemaRegistry:      at(5),
		AttestationRegistry: at(6),
		WalletFactory:       at(7),
		AllowlistResolver:   at(8),
		PaidResolver:        at(9),
	}
}

type Deployment struct {
	Addresses Addresses
	Owner     common.Address
	ChainID   *big.Int
	Ledger    *ledger.Ledger
	Vault     *ledger.Vault
	Verifier  *signature.Verifier

	Identities        *idregistry.Registry
	IdentityGateway   *idgateway.Gateway
	Delegation        *delegation.Directory
	NFTs              *nft.Directory
	Provenance        *provregistry.Registry
	ProvenanceGateway *provgateway.Gateway
	Schemas           *schema.Registry
	Resolvers         *resolver.Directory
	Allowlist         *resolver.AllowlistResolver
	PaidResolver      *resolver.PaidResolver
	Attestations      *attregistry.Registry
	WalletFactory     signature.OwnerWalletFactory
}

// New deploys every component and links the registries to their gateways and the identity
// registry to the delegation directory. Linking is done as the owner.
func New(ctx context.Context, cfg Config) (*Deployment, error) {
	if cfg.Owner == (common.Address{}) {
		return nil, fmt.Errorf("deployment owner cannot be the zero address")
	}
	if cfg.ChainID == nil {
		cfg.ChainID = big.NewInt(1)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ResolverPrice == nil {
		cfg.ResolverPrice = new(big.Int)
	}

	ledgerOpts := []ledger.Option{ledger.WithLogger(cfg.Logger)}
	if cfg.Publisher != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithPublisher(cfg.Publisher))
	}
	if cfg.Metrics != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithMetrics(cfg.Metrics))
	}
	if cfg.Clock != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithClock(cfg.Clock))
	}

	addrs := addressesFor(cfg.Owner)
	tracer := otel.Tracer(tracerName)
	l := ledger.New(ledgerOpts...)
	d := &Deployment{
		Addresses:     addrs,
		Owner:         cfg.Owner,
		ChainID:       new(big.Int).Set(cfg.ChainID),
		Ledger:        l,
		Vault:         ledger.NewVault(),
		Verifier:      signature.NewVerifier(signature.NewWalletDirectory(), signature.WithLogger(cfg.Logger)),
		NFTs:          nft.NewDirectory(l),
		Resolvers:     resolver.NewDirectory(l),
		Allowlist:     resolver.NewAllowlistResolver(l, addrs.AllowlistResolver, cfg.Owner),
		PaidResolver:  resolver.NewPaidResolver(cfg.ResolverPrice),
		WalletFactory: signature.OwnerWalletFactory{Address: addrs.WalletFactory},
	}

	idOpts := []idregistry.Option{idregistry.WithLogger(cfg.Logger), idregistry.WithMetrics(cfg.Metrics)}
	if cfg.MigrationGrace > 0 {
		idOpts = append(idOpts, idregistry.WithMigrationGracePeriod(cfg.MigrationGrace))
	}
	d.Identities = idregistry.New(l, addrs.IdentityRegistry, cfg.Owner, idOpts...)
	d.IdentityGateway = idgateway.New(d.Identities, d.Verifier, addrs.IdentityGateway, cfg.Owner, cfg.ChainID,
		idgateway.WithLogger(cfg.Logger), idgateway.WithTracer(tracer))
	d.Delegation = delegation.NewDirectory(l, addrs.Delegation, d.Identities)

	d.Provenance = provregistry.New(l, d.Identities, d.NFTs, addrs.ProvenanceRegistry, cfg.Owner,
		provregistry.WithLogger(cfg.Logger), provregistry.WithMetrics(cfg.Metrics))
	d.ProvenanceGateway = provgateway.New(d.Provenance, d.Identities, d.Verifier, d.Vault,
		addrs.ProvenanceGateway, cfg.Owner, cfg.ChainID,
		provgateway.WithLogger(cfg.Logger), provgateway.WithTracer(tracer), provgateway.WithFee(cfg.RegistrationFee))

	d.Schemas = schema.New(l, addrs.SchemaRegistry, cfg.Owner, schema.WithLogger(cfg.Logger), schema.WithMetrics(cfg.Metrics))
	d.Attestations = attregistry.New(l, attregistry.Deps{
		Identities: d.Identities,
		Schemas:    d.Schemas,
		Resolvers:  d.Resolvers,
		Verifier:   d.Verifier,
		Vault:      d.Vault,
	}, addrs.AttestationRegistry, cfg.Owner, cfg.ChainID,
		attregistry.WithLogger(cfg.Logger), attregistry.WithMetrics(cfg.Metrics), attregistry.WithTracer(tracer))

	err := l.Execute(requestcontext.WithCaller(ctx, cfg.Owner), func(ctx context.Context) error {
		if err := d.Identities.SetGateway(ctx, addrs.IdentityGateway); err != nil {
			return fmt.Errorf("link identity gateway: %w", err)
		}
		if err := d.Identities.SetDelegationOracle(ctx, d.Delegation); err != nil {
			return fmt.Errorf("link delegation directory: %w", err)
		}
		if err := d.Provenance.SetGateway(ctx, addrs.ProvenanceGateway); err != nil {
			return fmt.Errorf("link provenance gateway: %w", err)
		}
		if err := d.Resolvers.Deploy(ctx, addrs.AllowlistResolver, d.Allowlist); err != nil {
			return fmt.Errorf("deploy allowlist resolver: %w", err)
		}
		if err := d.Resolvers.Deploy(ctx, addrs.PaidResolver, d.PaidResolver); err != nil {
			return fmt.Errorf("deploy paid resolver: %w", err)
		}
		d.Verifier.Wallets().RegisterFactory(ctx, addrs.WalletFactory, d.WalletFactory)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// DeployCollection creates an NFT collection at address whose tokens claims can be bound to.
// The caller must own the provenance registry.
func (d *Deployment) DeployCollection(ctx context.Context, address, minter common.Address) error {
	return d.Ledger.Execute(ctx, func(ctx context.Context) error {
		if err := d.Provenance.Access().RequireOwner(ctx); err != nil {
			return err
		}
		if address == (common.Address{}) || minter == (common.Address{}) {
			return dErrors.New(dErrors.CodeInvalidAddress, "collection and minter cannot be the zero address")
		}
		_, err := d.NFTs.Deploy(ctx, address, minter)
		return collectionError(err)
	})
}

// MintToken mints tokenID of the collection at contract to to. The caller must be the
// collection's minter.
func (d *Deployment) MintToken(ctx context.Context, contract, to common.Address, tokenID *big.Int) error {
	c, ok := d.NFTs.Collection(ctx, contract)
	if !ok {
		return dErrors.New(dErrors.CodeInvalidNft, "no collection at "+contract.Hex())
	}
	if tokenID == nil || tokenID.Sign() <= 0 {
		return dErrors.New(dErrors.CodeInvalidNft, "token id must be positive")
	}
	if to == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidAddress, "cannot mint to the zero address")
	}
	return collectionError(c.Mint(ctx, to, tokenID))
}

func collectionError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeInvalidNft, "unknown collection or token")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "already exists")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeAccessDenied, "caller may not perform this operation")
	default:
		return err
	}
}

// Component returns the access control of the named component.
func (d *Deployment) Component(name string) (*access.Control, bool) {
	switch name {
	case ComponentIdentityRegistry:
		return d.Identities.Access(), true
	case ComponentIdentityGateway:
		return d.IdentityGateway.Access(), true
	case ComponentProvenanceRegistry:
		return d.Provenance.Access(), true
	case ComponentProvenanceGateway:
		return d.ProvenanceGateway.Access(), true
	case ComponentSchemaRegistry:
		return d.Schemas.Access(), true
	case ComponentAttestationRegistry:
		return d.Attestations.Access(), true
	default:
		return nil, false
	}
}
