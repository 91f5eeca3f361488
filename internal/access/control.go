// Package access provides ownership, roles and the pause switch of each registry and gateway.
package access

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"provenance/internal/events"
	"provenance/internal/ledger"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

type Role string

const (
	// RoleGuardian may pause a component. Only the owner unpauses.
	RoleGuardian Role = "guardian"
	// RoleMigrator may run bulk imports while a registry is paused.
	RoleMigrator Role = "migrator"
)

type roleKey struct {
	role    Role
	account common.Address
}

// Control holds one component's owner, role grants and paused flag.
type Control struct {
	ledger  *ledger.Ledger
	address common.Address
	owner   *ledger.Cell[common.Address]
	roles   *ledger.Map[roleKey, bool]
	paused  *ledger.Cell[bool]
}

// New creates the access state of the component deployed at address.
func New(l *ledger.Ledger, address, owner common.Address) *Control {
	return &Control{
		ledger:  l,
		address: address,
		owner:   ledger.NewCell(owner),
		roles:   ledger.NewMap[roleKey, bool](),
		paused:  ledger.NewCell(false),
	}
}

// Address is the component address this control guards.
func (c *Control) Address() common.Address {
	return c.address
}

func (c *Control) Owner(ctx context.Context) common.Address {
	var owner common.Address
	_ = c.ledger.View(ctx, func(context.Context) error {
		owner = c.owner.Get()
		return nil
	})
	return owner
}

func (c *Control) Paused(ctx context.Context) bool {
	var paused bool
	_ = c.ledger.View(ctx, func(context.Context) error {
		paused = c.paused.Get()
		return nil
	})
	return paused
}

func (c *Control) HasRole(ctx context.Context, role Role, account common.Address) bool {
	var ok bool
	_ = c.ledger.View(ctx, func(context.Context) error {
		ok = c.roles.Has(roleKey{role: role, account: account})
		return nil
	})
	return ok
}

// The Require checks run inside a ledger call and read state directly.

func (c *Control) RequireOwner(ctx context.Context) error {
	if requestcontext.Caller(ctx) != c.owner.Get() {
		return dErrors.New(dErrors.CodeOnlyOwner, "caller is not the owner")
	}
	return nil
}

func (c *Control) RequireRole(ctx context.Context, role Role) error {
	if !c.roles.Has(roleKey{role: role, account: requestcontext.Caller(ctx)}) {
		return dErrors.New(dErrors.CodeOnlyRole, "caller lacks role "+string(role))
	}
	return nil
}

func (c *Control) RequireNotPaused() error {
	if c.paused.Get() {
		return dErrors.New(dErrors.CodePaused, "paused")
	}
	return nil
}

func (c *Control) RequirePaused() error {
	if !c.paused.Get() {
		return dErrors.New(dErrors.CodeNotPaused, "not paused")
	}
	return nil
}

// Pause stops every state-changing operation. Caller must be a guardian or the owner.
func (c *Control) Pause(ctx context.Context) error {
	return c.ledger.Execute(ctx, func(ctx context.Context) error {
		caller := requestcontext.Caller(ctx)
		if caller != c.owner.Get() && !c.roles.Has(roleKey{role: RoleGuardian, account: caller}) {
			return dErrors.New(dErrors.CodeOnlyRole, "caller cannot pause")
		}
		if err := c.RequireNotPaused(); err != nil {
			return err
		}
		c.paused.Set(ctx, true)
		c.emit(ctx, events.KindPaused, map[string]string{"account": caller.Hex()})
		return nil
	})
}

// Unpause resumes operations. Owner only.
func (c *Control) Unpause(ctx context.Context) error {
	return c.ledger.Execute(ctx, func(ctx context.Context) error {
		if err := c.RequireOwner(ctx); err != nil {
			return err
		}
		if err := c.RequirePaused(); err != nil {
			return err
		}
		c.paused.Set(ctx, false)
		c.emit(ctx, events.KindUnpaused, map[string]string{"account": requestcontext.Caller(ctx).Hex()})
		return nil
	})
}

func (c *Control) GrantRole(ctx context.Context, role Role, account common.Address) error {
	return c.ledger.Execute(ctx, func(ctx context.Context) error {
		if err := c.RequireOwner(ctx); err != nil {
			return err
		}
		k := roleKey{role: role, account: account}
		if c.roles.Has(k) {
			return nil
		}
		c.roles.Set(ctx, k, true)
		c.emit(ctx, events.KindRoleGranted, map[string]string{"role": string(role), "account": account.Hex()})
		return nil
	})
}

func (c *Control) RevokeRole(ctx context.Context, role Role, account common.Address) error {
	return c.ledger.Execute(ctx, func(ctx context.Context) error {
		if err := c.RequireOwner(ctx); err != nil {
			return err
		}
		k := roleKey{role: role, account: account}
		if !c.roles.Has(k) {
			return nil
		}
		c.roles.Delete(ctx, k)
		c.emit(ctx, events.KindRoleRevoked, map[string]string{"role": string(role), "account": account.Hex()})
		return nil
	})
}

func (c *Control) TransferOwnership(ctx context.Context, to common.Address) error {
	return c.ledger.Execute(ctx, func(ctx context.Context) error {
		if err := c.RequireOwner(ctx); err != nil {
			return err
		}
		if to == (common.Address{}) {
			return dErrors.New(dErrors.CodeInvalidAddress, "new owner is the zero address")
		}
		prev := c.owner.Get()
		c.owner.Set(ctx, to)
		c.emit(ctx, events.KindOwnershipChanged, map[string]string{"from": prev.Hex(), "to": to.Hex()})
		return nil
	})
}

func (c *Control) emit(ctx context.Context, kind events.Kind, fields map[string]string) {
	events.Emit(ctx, events.Event{Kind: kind, Contract: c.address, Fields: fields})
}
