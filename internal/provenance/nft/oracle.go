// Package nft answers ownership queries for NFT collections.
package nft

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"provenance/internal/ledger"
	"provenance/pkg/platform/sentinel"
	"provenance/pkg/requestcontext"
)

// Oracle returns the current owner of a token. Unknown collections and unminted tokens
// return sentinel.ErrNotFound.
type Oracle interface {
	OwnerOf(ctx context.Context, contract common.Address, tokenID *big.Int) (common.Address, error)
}

// Collection is an in-process ERC-721 style collection.
type Collection struct {
	ledger  *ledger.Ledger
	address common.Address
	minter  common.Address
	owners  *ledger.Map[common.Hash, common.Address]
}

func NewCollection(l *ledger.Ledger, address, minter common.Address) *Collection {
	return &Collection{
		ledger:  l,
		address: address,
		minter:  minter,
		owners:  ledger.NewMap[common.Hash, common.Address](),
	}
}

func (c *Collection) Address() common.Address {
	return c.address
}

// Mint creates tokenID owned by to. Only the minter may mint.
func (c *Collection) Mint(ctx context.Context, to common.Address, tokenID *big.Int) error {
	return c.ledger.Execute(ctx, func(ctx context.Context) error {
		if requestcontext.Caller(ctx) != c.minter {
			return fmt.Errorf("mint: caller is not the minter: %w", sentinel.ErrInvalidState)
		}
		key := common.BigToHash(tokenID)
		if c.owners.Has(key) {
			return fmt.Errorf("mint token %s: %w", tokenID, sentinel.ErrConflict)
		}
		c.owners.Set(ctx, key, to)
		return nil
	})
}

// Transfer moves tokenID from the caller to to.
func (c *Collection) Transfer(ctx context.Context, to common.Address, tokenID *big.Int) error {
	return c.ledger.Execute(ctx, func(ctx context.Context) error {
		key := common.BigToHash(tokenID)
		owner, ok := c.owners.Get(key)
		if !ok {
			return fmt.Errorf("transfer token %s: %w", tokenID, sentinel.ErrNotFound)
		}
		if owner != requestcontext.Caller(ctx) {
			return fmt.Errorf("transfer token %s: caller is not the owner: %w", tokenID, sentinel.ErrInvalidState)
		}
		c.owners.Set(ctx, key, to)
		return nil
	})
}

func (c *Collection) ownerOf(tokenID *big.Int) (common.Address, error) {
	owner, ok := c.owners.Get(common.BigToHash(tokenID))
	if !ok {
		return common.Address{}, fmt.Errorf("token %s: %w", tokenID, sentinel.ErrNotFound)
	}
	return owner, nil
}

// Directory routes ownership queries to the collection deployed at each address.
type Directory struct {
	ledger      *ledger.Ledger
	collections *ledger.Map[common.Address, *Collection]
}

func NewDirectory(l *ledger.Ledger) *Directory {
	return &Directory{ledger: l, collections: ledger.NewMap[common.Address, *Collection]()}
}

// Deploy creates an empty collection at address.
func (d *Directory) Deploy(ctx context.Context, address, minter common.Address) (*Collection, error) {
	var c *Collection
	err := d.ledger.Execute(ctx, func(ctx context.Context) error {
		if d.collections.Has(address) {
			return fmt.Errorf("deploy collection %s: %w", address.Hex(), sentinel.ErrConflict)
		}
		c = NewCollection(d.ledger, address, minter)
		d.collections.Set(ctx, address, c)
		return nil
	})
	return c, err
}

// Collection returns the collection deployed at address.
func (d *Directory) Collection(ctx context.Context, address common.Address) (*Collection, bool) {
	var (
		c  *Collection
		ok bool
	)
	_ = d.ledger.View(ctx, func(context.Context) error {
		c, ok = d.collections.Get(address)
		return nil
	})
	return c, ok
}

func (d *Directory) OwnerOf(ctx context.Context, contract common.Address, tokenID *big.Int) (common.Address, error) {
	var owner common.Address
	err := d.ledger.View(ctx, func(context.Context) error {
		c, ok := d.collections.Get(contract)
		if !ok {
			return fmt.Errorf("collection %s: %w", contract.Hex(), sentinel.ErrNotFound)
		}
		var err error
		owner, err = c.ownerOf(tokenID)
		return err
	})
	return owner, err
}
