package signature

import (
	"bytes"
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

// erc6492Magic is the 32-byte suffix marking a pre-deploy wrapped signature.
var erc6492Magic = common.FromHex("0x6492649264926492649264926492649264926492649264926492649264926492")

var erc6492Args = abi.Arguments{{Type: mustType("address")}, {Type: mustType("bytes")}, {Type: mustType("bytes")}}

// Verifier checks that a digest was authorized by an expected signer before a deadline.
type Verifier struct {
	wallets *WalletDirectory
	logger  *slog.Logger
}

type Option func(*Verifier)

func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) { v.logger = logger }
}

func NewVerifier(wallets *WalletDirectory, opts ...Option) *Verifier {
	if wallets == nil {
		wallets = NewWalletDirectory()
	}
	v := &Verifier{wallets: wallets, logger: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Wallets exposes the directory used for ERC-1271 and ERC-6492 checks.
func (v *Verifier) Wallets() *WalletDirectory {
	return v.wallets
}

// Verify fails with CodeSignatureExpired when the call time is past deadline and with
// CodeInvalidSignature when sig does not authorize digest for signer. It must run inside a
// ledger call because verifying an ERC-6492 signature may deploy the signer's wallet.
func (v *Verifier) Verify(ctx context.Context, signer common.Address, digest common.Hash, sig []byte, deadline uint64) error {
	if requestcontext.Unix(ctx) > deadline {
		return dErrors.New(dErrors.CodeSignatureExpired, "signature deadline has passed")
	}
	if signer == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidSignature, "signer is the zero address")
	}
	if !v.valid(ctx, signer, digest, sig) {
		return dErrors.New(dErrors.CodeInvalidSignature, "invalid signature")
	}
	return nil
}

func (v *Verifier) valid(ctx context.Context, signer common.Address, digest common.Hash, sig []byte) bool {
	if isWrapped(sig) {
		return v.validWrapped(ctx, signer, digest, sig[:len(sig)-len(erc6492Magic)])
	}
	if w, ok := v.wallets.Wallet(signer); ok {
		return w.IsValidSignature(ctx, digest, sig)
	}
	recovered, ok := recoverECDSA(digest, sig)
	return ok && recovered == signer
}

func (v *Verifier) validWrapped(ctx context.Context, signer common.Address, digest common.Hash, wrapped []byte) bool {
	vals, err := erc6492Args.Unpack(wrapped)
	if err != nil || len(vals) != 3 {
		return false
	}
	factory, _ := vals[0].(common.Address)
	calldata, _ := vals[1].([]byte)
	inner, _ := vals[2].([]byte)

	if _, deployed := v.wallets.Wallet(signer); !deployed {
		addr, err := v.wallets.deployVia(ctx, factory, calldata)
		if err != nil {
			v.logger.DebugContext(ctx, "pre-deploy signature factory call failed",
				"signer", signer.Hex(),
				"factory", factory.Hex(),
				"error", err,
			)
			return false
		}
		if addr != signer {
			return false
		}
	}
	w, ok := v.wallets.Wallet(signer)
	return ok && w.IsValidSignature(ctx, digest, inner)
}

func isWrapped(sig []byte) bool {
	return len(sig) >= len(erc6492Magic) && bytes.Equal(sig[len(sig)-len(erc6492Magic):], erc6492Magic)
}

// WrapPreDeploy builds an ERC-6492 signature around inner.
func WrapPreDeploy(factory common.Address, calldata, inner []byte) ([]byte, error) {
	packed, err := erc6492Args.Pack(factory, calldata, inner)
	if err != nil {
		return nil, err
	}
	return append(packed, erc6492Magic...), nil
}

// recoverECDSA recovers the signer of a 65-byte r||s||v signature. v may be 0/1 or 27/28;
// high-s signatures are rejected.
func recoverECDSA(digest common.Hash, sig []byte) (common.Address, bool) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, false
	}
	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	r := new(big.Int).SetBytes(normalized[:32])
	s := new(big.Int).SetBytes(normalized[32:64])
	if !crypto.ValidateSignatureValues(normalized[64], r, s, true) {
		return common.Address{}, false
	}
	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return common.Address{}, false
	}
	return crypto.PubkeyToAddress(*pub), true
}
