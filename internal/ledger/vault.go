package ledger

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInsufficientBalance is returned when a debit exceeds the account balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Vault is the journaled balance book for value moved by calls: fees kept by gateways,
// value forwarded to resolvers and refunds paid back to callers.
type Vault struct {
	balances *Map[common.Address, *big.Int]
	refusing *Map[common.Address, bool]
}

func NewVault() *Vault {
	return &Vault{
		balances: NewMap[common.Address, *big.Int](),
		refusing: NewMap[common.Address, bool](),
	}
}

// BalanceOf returns a copy of addr's balance.
func (v *Vault) BalanceOf(addr common.Address) *big.Int {
	if b, ok := v.balances.Get(addr); ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// Credit adds amount to to's balance. Accounts that refuse deposits make the credit
// fail with ErrTransferRejected. Zero amounts always succeed.
func (v *Vault) Credit(ctx context.Context, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if refuse, _ := v.refusing.Get(to); refuse {
		return ErrTransferRejected
	}
	v.balances.Set(ctx, to, new(big.Int).Add(v.BalanceOf(to), amount))
	return nil
}

// Debit removes amount from from's balance.
func (v *Vault) Debit(ctx context.Context, from common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	bal := v.BalanceOf(from)
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	v.balances.Set(ctx, from, bal.Sub(bal, amount))
	return nil
}

// RefuseDeposits marks addr as unable to receive value, like a contract without a
// receive function.
func (v *Vault) RefuseDeposits(ctx context.Context, addr common.Address, refuse bool) {
	if refuse {
		v.refusing.Set(ctx, addr, true)
		return
	}
	v.refusing.Delete(ctx, addr)
}
