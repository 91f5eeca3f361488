package registry

//go:generate mockgen -source=../resolver/resolver.go -destination=../resolver/mocks/mocks.go -package=mocks Resolver

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"provenance/internal/attestation/models"
	"provenance/internal/attestation/resolver"
	"provenance/internal/attestation/resolver/mocks"
	"provenance/internal/attestation/schema"
	"provenance/internal/events"
	"provenance/internal/identity/delegation"
	idregistry "provenance/internal/identity/registry"
	"provenance/internal/ledger"
	"provenance/internal/signature"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

var (
	identityRegistryAddr = common.HexToAddress("0x0000000000000000000000000000000000001d01")
	identityGatewayAddr  = common.HexToAddress("0x0000000000000000000000000000000000001d02")
	delegationAddr       = common.HexToAddress("0x0000000000000000000000000000000000001d03")
	schemaRegistryAddr   = common.HexToAddress("0x0000000000000000000000000000000000004a01")
	registryAddr         = common.HexToAddress("0x0000000000000000000000000000000000004a02")
	allowlistAddr        = common.HexToAddress("0x0000000000000000000000000000000000004b01")
	paidAddr             = common.HexToAddress("0x0000000000000000000000000000000000004b02")
	ghostAddr            = common.HexToAddress("0x0000000000000000000000000000000000004b03")
	mockAddr             = common.HexToAddress("0x0000000000000000000000000000000000004b04")
	ownerAddr            = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	relayer              = common.HexToAddress("0x00000000000000000000000000000000000000ee")

	price = big.NewInt(10)
)

type signer struct {
	key  *ecdsa.PrivateKey
	addr common.Address
	id   domain.IdentityID
}

type RegistrySuite struct {
	suite.Suite
	ledger     *ledger.Ledger
	store      *events.InMemoryStore
	vault      *ledger.Vault
	identities *idregistry.Registry
	delegation *delegation.Directory
	schemas    *schema.Registry
	resolvers  *resolver.Directory
	allowlist  *resolver.AllowlistResolver
	registry   *Registry
	now        time.Time
	deadline   uint64

	alice, bob, dave signer

	plainSchema, irrevocableSchema, allowlistSchema, paidSchema, ghostSchema common.Hash
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.now = time.Unix(1_700_000_000, 0)
	s.deadline = uint64(s.now.Add(time.Hour).Unix())
	s.store = events.NewInMemoryStore()
	s.ledger = ledger.New(
		ledger.WithPublisher(events.NewPublisher(s.store)),
		ledger.WithClock(func() time.Time { return s.now }),
	)
	s.vault = ledger.NewVault()

	s.identities = idregistry.New(s.ledger, identityRegistryAddr, ownerAddr)
	s.Require().NoError(s.identities.SetGateway(as(ownerAddr), identityGatewayAddr))
	s.delegation = delegation.NewDirectory(s.ledger, delegationAddr, s.identities)
	s.Require().NoError(s.identities.SetDelegationOracle(as(ownerAddr), s.delegation))
	s.alice = s.newIdentity("alice")
	s.bob = s.newIdentity("bob")
	s.dave = s.newIdentity("dave")

	s.resolvers = resolver.NewDirectory(s.ledger)
	s.allowlist = resolver.NewAllowlistResolver(s.ledger, allowlistAddr, ownerAddr)
	s.Require().NoError(s.resolvers.Deploy(context.Background(), allowlistAddr, s.allowlist))
	s.Require().NoError(s.resolvers.Deploy(context.Background(), paidAddr, resolver.NewPaidResolver(price)))

	s.schemas = schema.New(s.ledger, schemaRegistryAddr, ownerAddr)
	s.plainSchema = s.registerSchema("bool plain", common.Address{}, true)
	s.irrevocableSchema = s.registerSchema("bool final", common.Address{}, false)
	s.allowlistSchema = s.registerSchema("bool listed", allowlistAddr, true)
	s.paidSchema = s.registerSchema("bool paid", paidAddr, true)
	s.ghostSchema = s.registerSchema("bool ghost", ghostAddr, true)

	s.registry = New(s.ledger, Deps{
		Identities: s.identities,
		Schemas:    s.schemas,
		Resolvers:  s.resolvers,
		Verifier:   signature.NewVerifier(signature.NewWalletDirectory()),
		Vault:      s.vault,
	}, registryAddr, ownerAddr, big.NewInt(10))
}

func (s *RegistrySuite) newIdentity(username string) signer {
	key, err := crypto.GenerateKey()
	s.Require().NoError(err)
	addr := crypto.PubkeyToAddress(key.PublicKey)
	id, err := s.identities.Register(as(identityGatewayAddr), addr, username, common.Address{})
	s.Require().NoError(err)
	return signer{key: key, addr: addr, id: id}
}

func (s *RegistrySuite) registerSchema(def string, res common.Address, revocable bool) common.Hash {
	uid, err := s.schemas.Register(as(ownerAddr), def, res, revocable)
	s.Require().NoError(err)
	return uid
}

func as(addr common.Address) context.Context {
	return requestcontext.WithCaller(context.Background(), addr)
}

func paying(addr common.Address, value int64) context.Context {
	return requestcontext.WithCallValue(as(addr), big.NewInt(value))
}

func item(originator domain.IdentityID, data string, value int64) models.AttestationRequestData {
	return models.AttestationRequestData{
		Originator: originator,
		Revocable:  true,
		Data:       []byte(data),
		Value:      big.NewInt(value),
	}
}

func (s *RegistrySuite) attest(who signer, schemaUID common.Hash, data string) common.Hash {
	uid, err := s.registry.Attest(as(who.addr), models.AttestationRequest{Schema: schemaUID, Data: item(who.id, data, 0)})
	s.Require().NoError(err)
	return uid
}

func (s *RegistrySuite) signAttest(who signer, schemaUID common.Hash, d models.AttestationRequestData, nonce uint64) []byte {
	digest, err := s.registry.Digests().Attest(schemaUID, d, nonce, s.deadline)
	s.Require().NoError(err)
	sig, err := signature.Sign(who.key, digest)
	s.Require().NoError(err)
	return sig
}

func (s *RegistrySuite) signRevoke(who signer, schemaUID common.Hash, d models.RevocationRequestData, nonce uint64) []byte {
	digest, err := s.registry.Digests().Revoke(schemaUID, d, nonce, s.deadline)
	s.Require().NoError(err)
	sig, err := signature.Sign(who.key, digest)
	s.Require().NoError(err)
	return sig
}

func (s *RegistrySuite) TestAttest() {
	s.Run("caller without identity", func() {
		_, err := s.registry.Attest(as(relayer), models.AttestationRequest{Schema: s.plainSchema, Data: item(s.alice.id, "x", 0)})
		s.True(dErrors.HasCode(err, dErrors.CodeHasNoID))
	})

	s.Run("unknown schema", func() {
		_, err := s.registry.Attest(as(s.alice.addr), models.AttestationRequest{Schema: common.HexToHash("0x01"), Data: item(s.alice.id, "x", 0)})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSchema))
	})

	s.Run("expiration must be in the future", func() {
		d := item(s.alice.id, "x", 0)
		d.ExpirationTime = uint64(s.now.Unix())
		_, err := s.registry.Attest(as(s.alice.addr), models.AttestationRequest{Schema: s.plainSchema, Data: d})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidExpirationTime))
	})

	s.Run("revocable attestation under an irrevocable schema", func() {
		_, err := s.registry.Attest(as(s.alice.addr), models.AttestationRequest{Schema: s.irrevocableSchema, Data: item(s.alice.id, "x", 0)})
		s.True(dErrors.HasCode(err, dErrors.CodeIrrevocable))
	})

	s.Run("stores the attestation", func() {
		d := item(s.alice.id, "hello", 0)
		d.ExpirationTime = uint64(s.now.Add(24 * time.Hour).Unix())
		uid, err := s.registry.Attest(as(s.alice.addr), models.AttestationRequest{Schema: s.plainSchema, Data: d})
		s.Require().NoError(err)

		att := s.registry.GetAttestation(context.Background(), uid)
		s.True(att.Exists())
		s.True(s.registry.IsAttestationValid(context.Background(), uid))
		s.Equal(s.plainSchema, att.Schema)
		s.Equal(s.alice.id, att.Originator)
		s.Equal(s.alice.id, att.Registrar)
		s.Equal(uint64(s.now.Unix()), att.Time)
		s.Equal(d.ExpirationTime, att.ExpirationTime)
		s.Zero(att.RevocationTime)
		s.Equal([]byte("hello"), att.Data)
		s.Equal(UID(att), uid)

		att.Data[0] = 'j'
		s.Equal([]byte("hello"), s.registry.GetAttestation(context.Background(), uid).Data)
	})

	s.Run("identical attestation in the same second collides", func() {
		s.attest(s.alice, s.plainSchema, "same")
		_, err := s.registry.Attest(as(s.alice.addr), models.AttestationRequest{Schema: s.plainSchema, Data: item(s.alice.id, "same", 0)})
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyAttested))
	})

	s.Run("identical attestation a second later is distinct", func() {
		s.now = s.now.Add(time.Second)
		s.attest(s.alice, s.plainSchema, "same")
	})

	s.Run("attesting for another identity needs rights", func() {
		_, err := s.registry.Attest(as(s.bob.addr), models.AttestationRequest{Schema: s.plainSchema, Data: item(s.alice.id, "x", 0)})
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})

	s.Run("paused registry rejects", func() {
		s.Require().NoError(s.registry.Access().Pause(as(ownerAddr)))
		_, err := s.registry.Attest(as(s.alice.addr), models.AttestationRequest{Schema: s.plainSchema, Data: item(s.alice.id, "p", 0)})
		s.True(dErrors.HasCode(err, dErrors.CodePaused))
		s.Require().NoError(s.registry.Access().Unpause(as(ownerAddr)))
	})
}

func (s *RegistrySuite) TestNonPayableResolver() {
	s.Require().NoError(s.allowlist.Allow(as(ownerAddr), s.alice.id, true))
	req := models.AttestationRequest{Schema: s.allowlistSchema, Data: item(s.alice.id, "listed", 1)}

	s.Run("value is rejected", func() {
		_, err := s.registry.Attest(paying(s.alice.addr, 1), req)
		s.True(dErrors.HasCode(err, dErrors.CodeNotPayable))
	})

	s.Run("zero value succeeds", func() {
		req.Data.Value = big.NewInt(0)
		_, err := s.registry.Attest(as(s.alice.addr), req)
		s.NoError(err)
	})

	s.Run("resolver vetoes registrars off the list", func() {
		_, err := s.registry.Attest(as(s.bob.addr), models.AttestationRequest{Schema: s.allowlistSchema, Data: item(s.bob.id, "listed", 0)})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAttestation))
	})

	s.Run("schema without resolver cannot take value", func() {
		_, err := s.registry.Attest(paying(s.alice.addr, 1), models.AttestationRequest{Schema: s.plainSchema, Data: item(s.alice.id, "v", 1)})
		s.True(dErrors.HasCode(err, dErrors.CodeNotPayable))
	})

	s.Run("resolver address without code rejects", func() {
		_, err := s.registry.Attest(as(s.alice.addr), models.AttestationRequest{Schema: s.ghostSchema, Data: item(s.alice.id, "g", 0)})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAttestation))
	})
}

func (s *RegistrySuite) TestPaidResolver() {
	s.Run("forwards the declared value and refunds the rest", func() {
		_, err := s.registry.Attest(paying(s.alice.addr, 15), models.AttestationRequest{Schema: s.paidSchema, Data: item(s.alice.id, "paid", 10)})
		s.Require().NoError(err)
		s.Equal(int64(10), s.vault.BalanceOf(paidAddr).Int64())
		s.Equal(int64(5), s.vault.BalanceOf(s.alice.addr).Int64())
	})

	s.Run("declared value above the value sent", func() {
		_, err := s.registry.Attest(paying(s.bob.addr, 5), models.AttestationRequest{Schema: s.paidSchema, Data: item(s.bob.id, "paid", 10)})
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientValue))
	})

	s.Run("wrong price is vetoed and nothing moves", func() {
		_, err := s.registry.Attest(paying(s.bob.addr, 9), models.AttestationRequest{Schema: s.paidSchema, Data: item(s.bob.id, "paid", 9)})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAttestation))
		s.Equal(int64(10), s.vault.BalanceOf(paidAddr).Int64())
		s.Zero(s.vault.BalanceOf(s.bob.addr).Sign())
	})

	s.Run("caller refusing the refund reverts", func() {
		s.vault.RefuseDeposits(context.Background(), s.bob.addr, true)
		defer s.vault.RefuseDeposits(context.Background(), s.bob.addr, false)
		_, err := s.registry.Attest(paying(s.bob.addr, 11), models.AttestationRequest{Schema: s.paidSchema, Data: item(s.bob.id, "paid", 10)})
		s.True(dErrors.HasCode(err, dErrors.CodeRefundFailed))
		s.Equal(int64(10), s.vault.BalanceOf(paidAddr).Int64())
	})
}

func (s *RegistrySuite) TestMultiAttest() {
	s.Run("empty batches are rejected", func() {
		_, err := s.registry.MultiAttest(as(s.alice.addr), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidLength))
		_, err = s.registry.MultiAttest(as(s.alice.addr), []models.MultiAttestationRequest{{Schema: s.plainSchema}})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidLength))
	})

	s.Run("value is conserved across groups", func() {
		uids, err := s.registry.MultiAttest(paying(s.alice.addr, 25), []models.MultiAttestationRequest{
			{Schema: s.paidSchema, Data: []models.AttestationRequestData{item(s.alice.id, "a", 10), item(s.alice.id, "b", 10)}},
			{Schema: s.plainSchema, Data: []models.AttestationRequestData{item(s.alice.id, "c", 0)}},
		})
		s.Require().NoError(err)
		s.Require().Len(uids, 3)
		s.Equal([]byte("a"), s.registry.GetAttestation(context.Background(), uids[0]).Data)
		s.Equal([]byte("b"), s.registry.GetAttestation(context.Background(), uids[1]).Data)
		s.Equal(s.plainSchema, s.registry.GetAttestation(context.Background(), uids[2]).Schema)

		forwarded := s.vault.BalanceOf(paidAddr)
		refunded := s.vault.BalanceOf(s.alice.addr)
		s.Equal(int64(20), forwarded.Int64())
		s.Equal(int64(25), new(big.Int).Add(forwarded, refunded).Int64())
	})

	s.Run("one bad item reverts the whole batch", func() {
		before, err := s.store.List(context.Background(), events.Filter{Kind: events.KindAttestationAttested})
		s.Require().NoError(err)

		_, err = s.registry.MultiAttest(paying(s.bob.addr, 20), []models.MultiAttestationRequest{
			{Schema: s.plainSchema, Data: []models.AttestationRequestData{item(s.bob.id, "ok", 0)}},
			{Schema: s.paidSchema, Data: []models.AttestationRequestData{item(s.bob.id, "d", 10), item(s.bob.id, "e", 9)}},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAttestations))

		after, err := s.store.List(context.Background(), events.Filter{Kind: events.KindAttestationAttested})
		s.Require().NoError(err)
		s.Len(after, len(before))
		s.Equal(int64(20), s.vault.BalanceOf(paidAddr).Int64())
	})
}

func (s *RegistrySuite) TestDelegatedRights() {
	req := models.AttestationRequest{Schema: s.plainSchema, Data: item(s.alice.id, "by dave", 0)}

	s.Run("undelegated identity is denied", func() {
		_, err := s.registry.Attest(as(s.dave.addr), req)
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
		ok, err := s.registry.CanAttest(context.Background(), s.alice.id, s.dave.id)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("attest rights let the delegate attest for the originator", func() {
		s.Require().NoError(s.delegation.Delegate(as(s.alice.addr), s.dave.id, registryAddr, delegation.RightsAttest))
		ok, err := s.registry.CanAttest(context.Background(), s.alice.id, s.dave.id)
		s.Require().NoError(err)
		s.True(ok)

		uid, err := s.registry.Attest(as(s.dave.addr), req)
		s.Require().NoError(err)
		att := s.registry.GetAttestation(context.Background(), uid)
		s.Equal(s.alice.id, att.Originator)
		s.Equal(s.dave.id, att.Registrar)
	})

	s.Run("the delegate cannot revoke for the originator", func() {
		uid := s.registry.GetAttestation(context.Background(), UID(models.Attestation{
			Schema:     s.plainSchema,
			Time:       uint64(s.now.Unix()),
			Originator: s.alice.id,
			Registrar:  s.dave.id,
			Revocable:  true,
			Data:       []byte("by dave"),
		})).UID
		s.Require().NotEqual(common.Hash{}, uid)
		err := s.registry.Revoke(as(s.dave.addr), models.RevocationRequest{Schema: s.plainSchema, Data: models.RevocationRequestData{UID: uid}})
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})
}

func (s *RegistrySuite) TestAttestByDelegation() {
	d := item(s.alice.id, "signed", 0)

	s.Run("relayer submits the attester's signature", func() {
		sig := s.signAttest(s.alice, s.plainSchema, d, 0)
		uid, err := s.registry.AttestByDelegation(as(relayer), models.DelegatedAttestationRequest{
			Schema: s.plainSchema, Data: d, Signature: sig, Attester: s.alice.addr, Deadline: s.deadline,
		})
		s.Require().NoError(err)
		s.Equal(s.alice.id, s.registry.GetAttestation(context.Background(), uid).Registrar)
		s.Equal(uint64(1), s.registry.Nonces(context.Background(), s.alice.addr))
	})

	s.Run("replay fails", func() {
		sig := s.signAttest(s.alice, s.plainSchema, d, 0)
		_, err := s.registry.AttestByDelegation(as(relayer), models.DelegatedAttestationRequest{
			Schema: s.plainSchema, Data: d, Signature: sig, Attester: s.alice.addr, Deadline: s.deadline,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSignature))
	})

	s.Run("tampered payload fails", func() {
		sig := s.signAttest(s.alice, s.plainSchema, d, 1)
		tampered := item(s.alice.id, "signed!", 0)
		_, err := s.registry.AttestByDelegation(as(relayer), models.DelegatedAttestationRequest{
			Schema: s.plainSchema, Data: tampered, Signature: sig, Attester: s.alice.addr, Deadline: s.deadline,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSignature))
	})

	s.Run("multi delegated consumes a nonce per item", func() {
		a, b := item(s.alice.id, "m1", 0), item(s.alice.id, "m2", 0)
		sigs := [][]byte{s.signAttest(s.alice, s.plainSchema, a, 1), s.signAttest(s.alice, s.plainSchema, b, 2)}
		uids, err := s.registry.MultiAttestByDelegation(as(relayer), []models.MultiDelegatedAttestationRequest{{
			Schema: s.plainSchema, Data: []models.AttestationRequestData{a, b}, Signatures: sigs, Attester: s.alice.addr, Deadline: s.deadline,
		}})
		s.Require().NoError(err)
		s.Len(uids, 2)
		s.Equal(uint64(3), s.registry.Nonces(context.Background(), s.alice.addr))
	})

	s.Run("signature count must match data", func() {
		_, err := s.registry.MultiAttestByDelegation(as(relayer), []models.MultiDelegatedAttestationRequest{{
			Schema: s.plainSchema, Data: []models.AttestationRequestData{d}, Attester: s.alice.addr, Deadline: s.deadline,
		}})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidLength))
	})
}

func (s *RegistrySuite) TestRevoke() {
	uid := s.attest(s.alice, s.plainSchema, "to revoke")
	revocation := models.RevocationRequest{Schema: s.plainSchema, Data: models.RevocationRequestData{UID: uid}}

	s.Run("unknown uid", func() {
		err := s.registry.Revoke(as(s.alice.addr), models.RevocationRequest{Schema: s.plainSchema, Data: models.RevocationRequestData{UID: common.HexToHash("0x02")}})
		s.True(dErrors.HasCode(err, dErrors.CodeAttestationNotFound))
	})

	s.Run("schema mismatch", func() {
		err := s.registry.Revoke(as(s.alice.addr), models.RevocationRequest{Schema: s.paidSchema, Data: models.RevocationRequestData{UID: uid}})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSchema))
	})

	s.Run("only the originator revokes", func() {
		err := s.registry.Revoke(as(s.bob.addr), revocation)
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})

	s.Run("value without a resolver", func() {
		withValue := revocation
		withValue.Data.Value = big.NewInt(1)
		err := s.registry.Revoke(paying(s.alice.addr, 1), withValue)
		s.True(dErrors.HasCode(err, dErrors.CodeNotPayable))
	})

	s.Run("revocation is one-way", func() {
		s.Require().NoError(s.registry.Revoke(as(s.alice.addr), revocation))
		att := s.registry.GetAttestation(context.Background(), uid)
		s.True(att.Revoked())
		s.Equal(uint64(s.now.Unix()), att.RevocationTime)

		err := s.registry.Revoke(as(s.alice.addr), revocation)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRevoked))
	})

	s.Run("irrevocable attestations stay", func() {
		d := item(s.alice.id, "final", 0)
		d.Revocable = false
		final, err := s.registry.Attest(as(s.alice.addr), models.AttestationRequest{Schema: s.irrevocableSchema, Data: d})
		s.Require().NoError(err)
		err = s.registry.Revoke(as(s.alice.addr), models.RevocationRequest{Schema: s.irrevocableSchema, Data: models.RevocationRequestData{UID: final}})
		s.True(dErrors.HasCode(err, dErrors.CodeIrrevocable))
	})

	s.Run("signed revocation", func() {
		target := s.attest(s.alice, s.plainSchema, "signed revoke")
		data := models.RevocationRequestData{UID: target}
		n := s.registry.Nonces(context.Background(), s.alice.addr)
		err := s.registry.RevokeByDelegation(as(relayer), models.DelegatedRevocationRequest{
			Schema: s.plainSchema, Data: data, Signature: s.signRevoke(s.alice, s.plainSchema, data, n), Revoker: s.alice.addr, Deadline: s.deadline,
		})
		s.Require().NoError(err)
		s.True(s.registry.GetAttestation(context.Background(), target).Revoked())
	})

	s.Run("multi revoke is atomic", func() {
		a := s.attest(s.alice, s.plainSchema, "ra")
		err := s.registry.MultiRevoke(as(s.alice.addr), []models.MultiRevocationRequest{{
			Schema: s.plainSchema,
			Data:   []models.RevocationRequestData{{UID: a}, {UID: uid}},
		}})
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRevoked))
		s.False(s.registry.GetAttestation(context.Background(), a).Revoked())

		s.Require().NoError(s.registry.MultiRevoke(as(s.alice.addr), []models.MultiRevocationRequest{{
			Schema: s.plainSchema,
			Data:   []models.RevocationRequestData{{UID: a}},
		}}))
		s.True(s.registry.GetAttestation(context.Background(), a).Revoked())
	})

	s.Run("multi delegated revoke", func() {
		a := s.attest(s.alice, s.plainSchema, "da")
		data := models.RevocationRequestData{UID: a}
		n := s.registry.Nonces(context.Background(), s.alice.addr)
		err := s.registry.MultiRevokeByDelegation(as(relayer), []models.MultiDelegatedRevocationRequest{{
			Schema:     s.plainSchema,
			Data:       []models.RevocationRequestData{data},
			Signatures: [][]byte{s.signRevoke(s.alice, s.plainSchema, data, n)},
			Revoker:    s.alice.addr,
			Deadline:   s.deadline,
		}})
		s.Require().NoError(err)
		s.True(s.registry.GetAttestation(context.Background(), a).Revoked())
	})
}

func (s *RegistrySuite) TestResolverFailure() {
	ctrl := gomock.NewController(s.T())
	res := mocks.NewMockResolver(ctrl)
	s.Require().NoError(s.resolvers.Deploy(context.Background(), mockAddr, res))
	mockSchema := s.registerSchema("bool mocked", mockAddr, true)

	res.EXPECT().
		Attest(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(false, errors.New("resolver reverted"))

	_, err := s.registry.Attest(as(s.alice.addr), models.AttestationRequest{Schema: mockSchema, Data: item(s.alice.id, "m", 0)})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidAttestation))
}

func (s *RegistrySuite) TestResolverPanic() {
	ctrl := gomock.NewController(s.T())
	res := mocks.NewMockResolver(ctrl)
	s.Require().NoError(s.resolvers.Deploy(context.Background(), mockAddr, res))
	mockSchema := s.registerSchema("bool panicking", mockAddr, true)

	res.EXPECT().IsPayable().Return(false).AnyTimes()
	res.EXPECT().
		Attest(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, models.Attestation, *big.Int) (bool, error) {
			panic("resolver bug")
		})

	before := s.registry.attestations.Len()
	req := models.AttestationRequest{Schema: mockSchema, Data: item(s.alice.id, "boom", 0)}
	_, err := s.registry.Attest(as(s.alice.addr), req)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	s.Equal(before, s.registry.attestations.Len(), "attestation stored before the callout is undone")
}

func (s *RegistrySuite) TestOffchain() {
	data := crypto.Keccak256Hash([]byte("document"))

	s.Run("timestamps once", func() {
		ts, err := s.registry.Timestamp(as(s.alice.addr), data)
		s.Require().NoError(err)
		s.Equal(uint64(s.now.Unix()), ts)
		s.Equal(ts, s.registry.GetTimestamp(context.Background(), data))

		_, err = s.registry.Timestamp(as(s.bob.addr), data)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyTimestamped))
	})

	s.Run("multi timestamp is atomic", func() {
		fresh := crypto.Keccak256Hash([]byte("fresh"))
		_, err := s.registry.MultiTimestamp(as(s.alice.addr), []common.Hash{fresh, data})
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyTimestamped))
		s.Zero(s.registry.GetTimestamp(context.Background(), fresh))
	})

	s.Run("timestamping takes no value", func() {
		_, err := s.registry.Timestamp(paying(s.alice.addr, 1), crypto.Keccak256Hash([]byte("paid")))
		s.True(dErrors.HasCode(err, dErrors.CodeNotPayable))
	})

	s.Run("offchain revocation is per revoker", func() {
		_, err := s.registry.RevokeOffchain(as(s.alice.addr), data)
		s.Require().NoError(err)
		_, err = s.registry.RevokeOffchain(as(s.alice.addr), data)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRevokedOffchain))

		_, err = s.registry.MultiRevokeOffchain(as(relayer), []common.Hash{data})
		s.NoError(err)
		s.NotZero(s.registry.GetRevokeOffchain(context.Background(), relayer, data))
		s.Zero(s.registry.GetRevokeOffchain(context.Background(), s.bob.addr, data))
	})
}
