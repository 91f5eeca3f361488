package gateway

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/suite"

	"provenance/internal/events"
	"provenance/internal/identity/delegation"
	idregistry "provenance/internal/identity/registry"
	"provenance/internal/ledger"
	"provenance/internal/provenance/nft"
	"provenance/internal/provenance/registry"
	"provenance/internal/signature"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

var (
	identityRegistryAddr = common.HexToAddress("0x0000000000000000000000000000000000001d01")
	identityGatewayAddr  = common.HexToAddress("0x0000000000000000000000000000000000001d02")
	delegationAddr       = common.HexToAddress("0x0000000000000000000000000000000000001d03")
	registryAddr         = common.HexToAddress("0x0000000000000000000000000000000000002d01")
	gatewayAddr          = common.HexToAddress("0x0000000000000000000000000000000000002d02")
	collectionAddr       = common.HexToAddress("0x0000000000000000000000000000000000003e01")
	ownerAddr            = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	treasury             = common.HexToAddress("0x00000000000000000000000000000000000000f7")
	relayer              = common.HexToAddress("0x00000000000000000000000000000000000000ee")

	fee      = big.NewInt(100)
	contentA = crypto.Keccak256Hash([]byte("album-a"))
	contentB = crypto.Keccak256Hash([]byte("album-b"))
)

type signer struct {
	key  *ecdsa.PrivateKey
	addr common.Address
	id   domain.IdentityID
}

type GatewaySuite struct {
	suite.Suite
	ledger     *ledger.Ledger
	store      *events.InMemoryStore
	vault      *ledger.Vault
	identities *idregistry.Registry
	delegation *delegation.Directory
	collection *nft.Collection
	gateway    *Gateway
	now        time.Time
	deadline   uint64

	alice, bob, carol signer
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
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
	s.carol = s.newIdentity("carol")

	nfts := nft.NewDirectory(s.ledger)
	var err error
	s.collection, err = nfts.Deploy(context.Background(), collectionAddr, ownerAddr)
	s.Require().NoError(err)
	s.Require().NoError(s.collection.Mint(as(ownerAddr), s.alice.addr, big.NewInt(7)))
	s.Require().NoError(s.collection.Mint(as(ownerAddr), s.alice.addr, big.NewInt(8)))

	reg := registry.New(s.ledger, s.identities, nfts, registryAddr, ownerAddr)
	verifier := signature.NewVerifier(signature.NewWalletDirectory())
	s.gateway = New(reg, s.identities, verifier, s.vault, gatewayAddr, ownerAddr, big.NewInt(10), WithFee(fee))
	s.Require().NoError(reg.SetGateway(as(ownerAddr), gatewayAddr))
}

func (s *GatewaySuite) newIdentity(username string) signer {
	key, err := crypto.GenerateKey()
	s.Require().NoError(err)
	addr := crypto.PubkeyToAddress(key.PublicKey)
	id, err := s.identities.Register(as(identityGatewayAddr), addr, username, common.Address{})
	s.Require().NoError(err)
	return signer{key: key, addr: addr, id: id}
}

func as(addr common.Address) context.Context {
	return requestcontext.WithCaller(context.Background(), addr)
}

func paying(addr common.Address, value int64) context.Context {
	return requestcontext.WithCallValue(as(addr), big.NewInt(value))
}

func (s *GatewaySuite) sign(who signer, digest common.Hash, err error) []byte {
	s.Require().NoError(err)
	sig, err := signature.Sign(who.key, digest)
	s.Require().NoError(err)
	return sig
}

func (s *GatewaySuite) registerSig(who signer, content common.Hash, contract common.Address, tokenID *big.Int) []byte {
	n := s.gateway.Nonces(context.Background(), who.addr)
	d, err := s.gateway.Digests().Register(who.id, content, contract, tokenID, n, s.deadline)
	return s.sign(who, d, err)
}

func (s *GatewaySuite) TestRegister() {
	s.Run("caller without identity", func() {
		_, err := s.gateway.Register(paying(relayer, 100), s.alice.id, contentA, common.Address{}, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeHasNoID))
	})

	s.Run("fee must be covered", func() {
		_, err := s.gateway.Register(paying(s.alice.addr, 99), s.alice.id, contentA, common.Address{}, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFee))
		s.Zero(s.gateway.Balance(context.Background()).Sign())
	})

	s.Run("fee kept and excess refunded", func() {
		id, err := s.gateway.Register(paying(s.alice.addr, 150), s.alice.id, contentA, common.Address{}, nil)
		s.Require().NoError(err)
		claim, err := s.gateway.Registry().Claim(context.Background(), id)
		s.Require().NoError(err)
		s.Equal(s.alice.id, claim.OriginatorID)
		s.Equal(s.alice.id, claim.RegistrarID)
		s.Equal(int64(100), s.gateway.Balance(context.Background()).Int64())
		s.Equal(int64(50), s.vault.BalanceOf(s.alice.addr).Int64())
	})

	s.Run("failed registration keeps no fee", func() {
		_, err := s.gateway.Register(paying(s.alice.addr, 100), s.alice.id, contentA, common.Address{}, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeContentHashAlreadyRegistered))
		s.Equal(int64(100), s.gateway.Balance(context.Background()).Int64())
	})

	s.Run("refund rejected by caller", func() {
		s.vault.RefuseDeposits(context.Background(), s.carol.addr, true)
		defer s.vault.RefuseDeposits(context.Background(), s.carol.addr, false)
		_, err := s.gateway.Register(paying(s.carol.addr, 101), s.carol.id, contentA, common.Address{}, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeRefundFailed))

		_, err = s.gateway.Register(paying(s.carol.addr, 100), s.carol.id, contentA, common.Address{}, nil)
		s.NoError(err)
	})
}

func (s *GatewaySuite) TestRegisterAsDelegate() {
	s.Run("undelegated registrar is denied", func() {
		_, err := s.gateway.Register(paying(s.bob.addr, 100), s.alice.id, contentB, common.Address{}, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})

	s.Run("attest rights do not cover provenance", func() {
		s.Require().NoError(s.delegation.Delegate(as(s.alice.addr), s.bob.id, gatewayAddr, delegation.RightsAttest))
		_, err := s.gateway.Register(paying(s.bob.addr, 100), s.alice.id, contentB, common.Address{}, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})

	s.Run("delegate registers with itself as registrar", func() {
		s.Require().NoError(s.delegation.Delegate(as(s.alice.addr), s.bob.id, gatewayAddr, delegation.RightsProvenance))
		id, err := s.gateway.Register(paying(s.bob.addr, 100), s.alice.id, contentB, common.Address{}, nil)
		s.Require().NoError(err)
		claim, err := s.gateway.Registry().Claim(context.Background(), id)
		s.Require().NoError(err)
		s.Equal(s.alice.id, claim.OriginatorID)
		s.Equal(s.bob.id, claim.RegistrarID)
	})

	s.Run("revoked delegate is denied again", func() {
		s.Require().NoError(s.delegation.Revoke(as(s.alice.addr), s.bob.id, gatewayAddr, delegation.RightsProvenance))
		_, err := s.gateway.Register(paying(s.bob.addr, 100), s.alice.id, contentA, common.Address{}, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})
}

func (s *GatewaySuite) TestRegisterFor() {
	s.Run("relayer submits the originator's signed request", func() {
		tokenID := big.NewInt(7)
		sig := s.registerSig(s.alice, contentA, collectionAddr, tokenID)
		id, err := s.gateway.RegisterFor(paying(relayer, 100), s.alice.id, contentA, collectionAddr, tokenID, s.deadline, sig)
		s.Require().NoError(err)

		claim, err := s.gateway.Registry().Claim(context.Background(), id)
		s.Require().NoError(err)
		s.Equal(s.alice.id, claim.RegistrarID)
		s.Equal(collectionAddr, claim.NftContract)
		s.Equal(uint64(1), s.gateway.Nonces(context.Background(), s.alice.addr))
	})

	s.Run("replayed signature fails", func() {
		d, err := s.gateway.Digests().Register(s.alice.id, contentB, common.Address{}, nil, 0, s.deadline)
		sig := s.sign(s.alice, d, err)
		_, err = s.gateway.RegisterFor(paying(relayer, 100), s.alice.id, contentB, common.Address{}, nil, s.deadline, sig)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSignature))
	})

	s.Run("signature by someone else fails", func() {
		n := s.gateway.Nonces(context.Background(), s.alice.addr)
		d, err := s.gateway.Digests().Register(s.alice.id, contentB, common.Address{}, nil, n, s.deadline)
		sig := s.sign(s.bob, d, err)
		_, err = s.gateway.RegisterFor(paying(relayer, 100), s.alice.id, contentB, common.Address{}, nil, s.deadline, sig)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSignature))
	})

	s.Run("expired signature fails", func() {
		n := s.gateway.Nonces(context.Background(), s.alice.addr)
		past := uint64(s.now.Add(-time.Second).Unix())
		d, err := s.gateway.Digests().Register(s.alice.id, contentB, common.Address{}, nil, n, past)
		sig := s.sign(s.alice, d, err)
		_, err = s.gateway.RegisterFor(paying(relayer, 100), s.alice.id, contentB, common.Address{}, nil, past, sig)
		s.True(dErrors.HasCode(err, dErrors.CodeSignatureExpired))
	})

	s.Run("unknown originator", func() {
		_, err := s.gateway.RegisterFor(paying(relayer, 100), domain.IdentityID(99), contentB, common.Address{}, nil, s.deadline, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeIdentityNotFound))
	})

	s.Run("burned nonce voids outstanding signatures", func() {
		sig := s.registerSig(s.alice, contentB, common.Address{}, nil)
		_, err := s.gateway.UseNonce(as(s.alice.addr))
		s.Require().NoError(err)
		_, err = s.gateway.RegisterFor(paying(relayer, 100), s.alice.id, contentB, common.Address{}, nil, s.deadline, sig)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSignature))
	})
}

func (s *GatewaySuite) TestAssignNft() {
	id, err := s.gateway.Register(paying(s.alice.addr, 100), s.alice.id, contentA, common.Address{}, nil)
	s.Require().NoError(err)

	s.Run("not payable", func() {
		err := s.gateway.AssignNft(paying(s.alice.addr, 1), id, collectionAddr, big.NewInt(7))
		s.True(dErrors.HasCode(err, dErrors.CodeNotPayable))
	})

	s.Run("other identities are denied", func() {
		err := s.gateway.AssignNft(as(s.bob.addr), id, collectionAddr, big.NewInt(7))
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})

	s.Run("unknown claim", func() {
		err := s.gateway.AssignNft(as(s.alice.addr), domain.ClaimID(99), collectionAddr, big.NewInt(7))
		s.True(dErrors.HasCode(err, dErrors.CodeClaimNotFound))
	})

	s.Run("originator binds its token", func() {
		s.Require().NoError(s.gateway.AssignNft(as(s.alice.addr), id, collectionAddr, big.NewInt(7)))
		s.Equal(id, s.gateway.Registry().ClaimIDByNft(context.Background(), collectionAddr, big.NewInt(7)))
	})

	s.Run("signed assignment by relayer", func() {
		other, err := s.gateway.Register(paying(s.alice.addr, 100), s.alice.id, contentB, common.Address{}, nil)
		s.Require().NoError(err)
		n := s.gateway.Nonces(context.Background(), s.alice.addr)
		d, err := s.gateway.Digests().AssignNft(other, collectionAddr, big.NewInt(8), n, s.deadline)
		sig := s.sign(s.alice, d, err)
		s.Require().NoError(s.gateway.AssignNftFor(as(relayer), other, collectionAddr, big.NewInt(8), s.deadline, sig))
		s.Equal(other, s.gateway.Registry().ClaimIDByNft(context.Background(), collectionAddr, big.NewInt(8)))
	})
}

func (s *GatewaySuite) TestFees() {
	s.Run("only the owner sets the fee", func() {
		err := s.gateway.SetFee(as(s.alice.addr), big.NewInt(1))
		s.True(dErrors.HasCode(err, dErrors.CodeOnlyOwner))
	})

	s.Run("negative fee rejected", func() {
		err := s.gateway.SetFee(as(ownerAddr), big.NewInt(-1))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("free registration after fee change", func() {
		s.Require().NoError(s.gateway.SetFee(as(ownerAddr), new(big.Int)))
		s.Zero(s.gateway.Fee(context.Background()).Sign())
		_, err := s.gateway.Register(as(s.alice.addr), s.alice.id, contentA, common.Address{}, nil)
		s.NoError(err)

		changes, err := s.store.List(context.Background(), events.Filter{Kind: events.KindProvenanceFeeChanged})
		s.Require().NoError(err)
		s.Require().Len(changes, 1)
		s.Equal("100", changes[0].Fields["from"])
		s.Equal("0", changes[0].Fields["to"])
	})

	s.Run("owner withdraws collected fees", func() {
		s.Require().NoError(s.gateway.SetFee(as(ownerAddr), fee))
		_, err := s.gateway.Register(paying(s.bob.addr, 100), s.bob.id, contentA, common.Address{}, nil)
		s.Require().NoError(err)

		amount, err := s.gateway.WithdrawFees(as(ownerAddr), treasury)
		s.Require().NoError(err)
		s.Equal(int64(100), amount.Int64())
		s.Equal(int64(100), s.vault.BalanceOf(treasury).Int64())
		s.Zero(s.gateway.Balance(context.Background()).Sign())
	})
}

func (s *GatewaySuite) TestPaused() {
	s.Require().NoError(s.gateway.Access().Pause(as(ownerAddr)))
	_, err := s.gateway.Register(paying(s.alice.addr, 100), s.alice.id, contentA, common.Address{}, nil)
	s.True(dErrors.HasCode(err, dErrors.CodePaused))
}
