package signature

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"provenance/internal/ledger"
)

// ContractWallet is a smart-contract account that validates signatures itself (ERC-1271).
type ContractWallet interface {
	IsValidSignature(ctx context.Context, digest common.Hash, sig []byte) bool
}

// WalletFactory deploys a contract wallet from factory calldata.
type WalletFactory interface {
	Deploy(ctx context.Context, calldata []byte) (common.Address, ContractWallet, error)
}

var ErrUnknownFactory = errors.New("no factory deployed at address")

// WalletDirectory records which addresses hold contract wallets and which hold factories.
// Deployments are journaled and disappear if the deploying call reverts.
type WalletDirectory struct {
	wallets   *ledger.Map[common.Address, ContractWallet]
	factories *ledger.Map[common.Address, WalletFactory]
}

func NewWalletDirectory() *WalletDirectory {
	return &WalletDirectory{
		wallets:   ledger.NewMap[common.Address, ContractWallet](),
		factories: ledger.NewMap[common.Address, WalletFactory](),
	}
}

// Deploy places w at addr.
func (d *WalletDirectory) Deploy(ctx context.Context, addr common.Address, w ContractWallet) {
	d.wallets.Set(ctx, addr, w)
}

// RegisterFactory places f at addr.
func (d *WalletDirectory) RegisterFactory(ctx context.Context, addr common.Address, f WalletFactory) {
	d.factories.Set(ctx, addr, f)
}

// Wallet returns the contract wallet deployed at addr, if any.
func (d *WalletDirectory) Wallet(addr common.Address) (ContractWallet, bool) {
	return d.wallets.Get(addr)
}

// deployVia runs factory calldata and records the resulting wallet.
func (d *WalletDirectory) deployVia(ctx context.Context, factory common.Address, calldata []byte) (common.Address, error) {
	f, ok := d.factories.Get(factory)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s", ErrUnknownFactory, factory.Hex())
	}
	addr, w, err := f.Deploy(ctx, calldata)
	if err != nil {
		return common.Address{}, fmt.Errorf("factory %s: %w", factory.Hex(), err)
	}
	if _, exists := d.wallets.Get(addr); !exists {
		d.wallets.Set(ctx, addr, w)
	}
	return addr, nil
}

// OwnerWallet is a single-owner smart account: a signature is valid when it is a plain
// ECDSA signature of the digest by the owner key.
type OwnerWallet struct {
	Owner common.Address
}

func (w OwnerWallet) IsValidSignature(_ context.Context, digest common.Hash, sig []byte) bool {
	signer, ok := recoverECDSA(digest, sig)
	return ok && signer == w.Owner
}

var ownerFactoryArgs = abi.Arguments{{Type: mustType("address")}, {Type: mustType("bytes32")}}

// OwnerWalletFactory deploys OwnerWallets at CREATE2 addresses derived from (owner, salt).
// Calldata is abi.encode(address owner, bytes32 salt).
type OwnerWalletFactory struct {
	Address common.Address
}

// WalletAddress predicts the address Deploy will use.
func (f OwnerWalletFactory) WalletAddress(owner common.Address, salt common.Hash) common.Address {
	return crypto.CreateAddress2(f.Address, salt, crypto.Keccak256(owner.Bytes()))
}

// Calldata encodes a deployment request for owner and salt.
func (f OwnerWalletFactory) Calldata(owner common.Address, salt common.Hash) ([]byte, error) {
	return ownerFactoryArgs.Pack(owner, [32]byte(salt))
}

func (f OwnerWalletFactory) Deploy(_ context.Context, calldata []byte) (common.Address, ContractWallet, error) {
	vals, err := ownerFactoryArgs.Unpack(calldata)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("decode calldata: %w", err)
	}
	owner, ok := vals[0].(common.Address)
	if !ok {
		return common.Address{}, nil, errors.New("decode calldata: owner is not an address")
	}
	salt, ok := vals[1].([32]byte)
	if !ok {
		return common.Address{}, nil, errors.New("decode calldata: salt is not bytes32")
	}
	return f.WalletAddress(owner, salt), OwnerWallet{Owner: owner}, nil
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}
