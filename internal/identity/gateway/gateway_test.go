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

	"provenance/internal/identity/registry"
	"provenance/internal/ledger"
	"provenance/internal/signature"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

var (
	registryAddr = common.HexToAddress("0x0000000000000000000000000000000000001d01")
	gatewayAddr  = common.HexToAddress("0x0000000000000000000000000000000000001d02")
	ownerAddr    = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	relayer      = common.HexToAddress("0x00000000000000000000000000000000000000ee")
)

type signer struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func newSigner(t *testing.T) signer {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	return signer{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

type GatewaySuite struct {
	suite.Suite
	ledger   *ledger.Ledger
	registry *registry.Registry
	verifier *signature.Verifier
	gateway  *Gateway
	now      time.Time
	deadline uint64

	alice, bob, carol signer
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	s.now = time.Unix(1_700_000_000, 0)
	s.deadline = uint64(s.now.Add(time.Hour).Unix())
	s.ledger = ledger.New(ledger.WithClock(func() time.Time { return s.now }))
	s.registry = registry.New(s.ledger, registryAddr, ownerAddr)
	s.verifier = signature.NewVerifier(signature.NewWalletDirectory())
	s.gateway = New(s.registry, s.verifier, gatewayAddr, ownerAddr, big.NewInt(10))
	s.Require().NoError(s.registry.SetGateway(as(ownerAddr), gatewayAddr))

	s.alice = newSigner(s.T())
	s.bob = newSigner(s.T())
	s.carol = newSigner(s.T())
}

func as(addr common.Address) context.Context {
	return requestcontext.WithCaller(context.Background(), addr)
}

func (s *GatewaySuite) sign(who signer, digest common.Hash, err error) []byte {
	s.Require().NoError(err)
	sig, err := signature.Sign(who.key, digest)
	s.Require().NoError(err)
	return sig
}

func (s *GatewaySuite) nonce(who signer) uint64 {
	return s.gateway.Nonces(context.Background(), who.addr)
}

func (s *GatewaySuite) registerDirect(who signer, username string) domain.IdentityID {
	id, err := s.gateway.Register(as(who.addr), username, common.Address{})
	s.Require().NoError(err)
	return id
}

// transferSig is the recipient consent for moving id to who.
func (s *GatewaySuite) transferSig(who signer, id domain.IdentityID) []byte {
	d, err := s.gateway.Digests().Transfer(id, who.addr, s.nonce(who), s.deadline)
	return s.sign(who, d, err)
}

func (s *GatewaySuite) TestRegister() {
	s.Run("caller becomes custody", func() {
		id := s.registerDirect(s.alice, "alice")
		s.Equal(domain.IdentityID(1), id)
		s.Equal(id, s.registry.IDOf(context.Background(), s.alice.addr))
	})

	s.Run("second registration by same address fails", func() {
		_, err := s.gateway.Register(as(s.alice.addr), "alice2", common.Address{})
		s.True(dErrors.HasCode(err, dErrors.CodeCustodyAlreadyRegistered))
	})

	s.Run("username format enforced", func() {
		_, err := s.gateway.Register(as(s.bob.addr), "bad name!", common.Address{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidUsername))
	})

	s.Run("paused gateway rejects", func() {
		s.Require().NoError(s.gateway.Access().Pause(as(ownerAddr)))
		_, err := s.gateway.Register(as(s.bob.addr), "bob", common.Address{})
		s.True(dErrors.HasCode(err, dErrors.CodePaused))
		s.Require().NoError(s.gateway.Access().Unpause(as(ownerAddr)))
	})
}

func (s *GatewaySuite) TestRegisterFor() {
	digest, err := s.gateway.Digests().Register(s.alice.addr, "alice", common.Address{}, s.nonce(s.alice), s.deadline)
	sig := s.sign(s.alice, digest, err)

	s.Run("wrong signer rejected", func() {
		bad := s.sign(s.bob, digest, nil)
		_, err := s.gateway.RegisterFor(as(relayer), s.alice.addr, "alice", common.Address{}, s.deadline, bad)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSignature))
		s.Equal(uint64(0), s.nonce(s.alice), "nonce restored on failure")
	})

	s.Run("payload mismatch rejected", func() {
		_, err := s.gateway.RegisterFor(as(relayer), s.alice.addr, "mallory", common.Address{}, s.deadline, sig)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSignature))
	})

	s.Run("relayed registration succeeds", func() {
		id, err := s.gateway.RegisterFor(as(relayer), s.alice.addr, "alice", common.Address{}, s.deadline, sig)
		s.Require().NoError(err)
		s.Equal(id, s.registry.IDOf(context.Background(), s.alice.addr))
		s.Equal(domain.IdentityID(0), s.registry.IDOf(context.Background(), relayer))
		s.Equal(uint64(1), s.nonce(s.alice))
	})

	s.Run("replay rejected", func() {
		_, err := s.gateway.RegisterFor(as(relayer), s.alice.addr, "alice", common.Address{}, s.deadline, sig)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSignature))
	})

	s.Run("expired signature rejected", func() {
		past := uint64(s.now.Unix()) - 1
		d, err := s.gateway.Digests().Register(s.bob.addr, "bob", common.Address{}, s.nonce(s.bob), past)
		expired := s.sign(s.bob, d, err)
		_, err = s.gateway.RegisterFor(as(relayer), s.bob.addr, "bob", common.Address{}, past, expired)
		s.True(dErrors.HasCode(err, dErrors.CodeSignatureExpired))
	})
}

func (s *GatewaySuite) TestUseNonceInvalidatesOutstandingSignatures() {
	d, err := s.gateway.Digests().Register(s.bob.addr, "bob", common.Address{}, s.nonce(s.bob), s.deadline)
	sig := s.sign(s.bob, d, err)

	used, err := s.gateway.UseNonce(as(s.bob.addr))
	s.Require().NoError(err)
	s.Equal(uint64(0), used)

	_, err = s.gateway.RegisterFor(as(relayer), s.bob.addr, "bob", common.Address{}, s.deadline, sig)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidSignature))
}

func (s *GatewaySuite) TestRegisterForSmartAccount() {
	factory := signature.OwnerWalletFactory{Address: common.HexToAddress("0x00000000000000000000000000000000000000fa")}
	s.Require().NoError(s.ledger.Execute(context.Background(), func(ctx context.Context) error {
		s.verifier.Wallets().RegisterFactory(ctx, factory.Address, factory)
		return nil
	}))
	salt := common.HexToHash("0x01")
	wallet := factory.WalletAddress(s.alice.addr, salt)
	calldata, err := factory.Calldata(s.alice.addr, salt)
	s.Require().NoError(err)

	d, err := s.gateway.Digests().Register(wallet, "smart", common.Address{}, s.gateway.Nonces(context.Background(), wallet), s.deadline)
	inner := s.sign(s.alice, d, err)
	wrapped, err := signature.WrapPreDeploy(factory.Address, calldata, inner)
	s.Require().NoError(err)

	id, err := s.gateway.RegisterFor(as(relayer), wallet, "smart", common.Address{}, s.deadline, wrapped)
	s.Require().NoError(err)
	s.Equal(id, s.registry.IDOf(context.Background(), wallet))
}

func (s *GatewaySuite) TestTransfer() {
	id := s.registerDirect(s.alice, "alice")

	s.Run("caller without identity", func() {
		err := s.gateway.Transfer(as(s.carol.addr), s.bob.addr, s.deadline, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeHasNoID))
	})

	s.Run("recipient must consent", func() {
		bad := s.transferSig(s.carol, id)
		err := s.gateway.Transfer(as(s.alice.addr), s.bob.addr, s.deadline, bad)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSignature))
	})

	s.Run("transfer with consent", func() {
		err := s.gateway.Transfer(as(s.alice.addr), s.bob.addr, s.deadline, s.transferSig(s.bob, id))
		s.Require().NoError(err)
		s.Equal(id, s.registry.IDOf(context.Background(), s.bob.addr))
	})
}

func (s *GatewaySuite) TestTransferFor() {
	id := s.registerDirect(s.alice, "alice")
	d, err := s.gateway.Digests().Transfer(id, s.bob.addr, s.nonce(s.alice), s.deadline)
	fromSig := s.sign(s.alice, d, err)
	toSig := s.transferSig(s.bob, id)

	s.Require().NoError(s.gateway.TransferFor(as(relayer), s.alice.addr, s.bob.addr, s.deadline, fromSig, s.deadline, toSig))
	s.Equal(id, s.registry.IDOf(context.Background(), s.bob.addr))
	s.Equal(uint64(1), s.nonce(s.alice))
	s.Equal(uint64(1), s.nonce(s.bob))
}

func (s *GatewaySuite) TestTransferAndClearRecovery() {
	id, err := s.gateway.Register(as(s.alice.addr), "alice", s.carol.addr)
	s.Require().NoError(err)

	s.Run("plain transfer signature does not authorize the clearing variant", func() {
		err := s.gateway.TransferAndClearRecovery(as(s.alice.addr), s.bob.addr, s.deadline, s.transferSig(s.bob, id))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSignature))
	})

	d, err := s.gateway.Digests().TransferAndClearRecovery(id, s.bob.addr, s.nonce(s.bob), s.deadline)
	sig := s.sign(s.bob, d, err)
	s.Require().NoError(s.gateway.TransferAndClearRecovery(as(s.alice.addr), s.bob.addr, s.deadline, sig))
	s.Equal(common.Address{}, s.registry.RecoveryOf(context.Background(), id))
}

func (s *GatewaySuite) TestRecover() {
	id, err := s.gateway.Register(as(s.alice.addr), "alice", s.carol.addr)
	s.Require().NoError(err)

	s.Run("only the recovery address", func() {
		err := s.gateway.Recover(as(s.bob.addr), s.alice.addr, s.bob.addr, s.deadline, s.transferSig(s.bob, id))
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})

	s.Run("recovery moves custody", func() {
		err := s.gateway.Recover(as(s.carol.addr), s.alice.addr, s.bob.addr, s.deadline, s.transferSig(s.bob, id))
		s.Require().NoError(err)
		s.Equal(id, s.registry.IDOf(context.Background(), s.bob.addr))
		s.Equal(domain.IdentityID(0), s.registry.IDOf(context.Background(), s.alice.addr))
	})
}

func (s *GatewaySuite) TestUsernames() {
	aliceID := s.registerDirect(s.alice, "alice")
	bobID := s.registerDirect(s.bob, "bob")
	ctx := context.Background()

	s.Run("direct change", func() {
		s.Require().NoError(s.gateway.ChangeUsername(as(s.alice.addr), "alicia"))
		s.Equal(aliceID, s.registry.IDOfUsername(ctx, "alicia"))
	})

	s.Run("signed change", func() {
		d, err := s.gateway.Digests().ChangeUsername(bobID, "robert", s.nonce(s.bob), s.deadline)
		sig := s.sign(s.bob, d, err)
		s.Require().NoError(s.gateway.ChangeUsernameFor(as(relayer), bobID, "robert", s.deadline, sig))
		s.Equal(bobID, s.registry.IDOfUsername(ctx, "robert"))
	})

	s.Run("swap with recipient consent", func() {
		d, err := s.gateway.Digests().TransferUsername(aliceID, bobID, "robert", s.nonce(s.bob), s.deadline)
		sig := s.sign(s.bob, d, err)
		s.Require().NoError(s.gateway.TransferUsername(as(s.alice.addr), bobID, "robert", s.deadline, sig))
		s.Equal(bobID, s.registry.IDOfUsername(ctx, "alicia"))
		s.Equal(aliceID, s.registry.IDOfUsername(ctx, "robert"))
	})

	s.Run("invalid new name rejected before signature check", func() {
		err := s.gateway.TransferUsername(as(s.alice.addr), bobID, "", s.deadline, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidUsername))
	})
}

func (s *GatewaySuite) TestRecoveryAddress() {
	id := s.registerDirect(s.alice, "alice")

	s.Require().NoError(s.gateway.ChangeRecovery(as(s.alice.addr), s.carol.addr))
	s.Equal(s.carol.addr, s.registry.RecoveryOf(context.Background(), id))

	d, err := s.gateway.Digests().ChangeRecovery(id, s.bob.addr, s.nonce(s.alice), s.deadline)
	sig := s.sign(s.alice, d, err)
	s.Require().NoError(s.gateway.ChangeRecoveryFor(as(relayer), id, s.bob.addr, s.deadline, sig))
	s.Equal(s.bob.addr, s.registry.RecoveryOf(context.Background(), id))

	err = s.gateway.ChangeRecoveryFor(as(relayer), id, s.carol.addr, s.deadline, sig)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidSignature))
}
