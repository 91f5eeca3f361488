package registry

import (
	"context"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"provenance/internal/access"
	"provenance/internal/events"
	"provenance/internal/identity/models"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

// Migrate flags the import from a prior deployment as complete. Migrators keep their
// privilege for the grace period after this call. Owner only, once.
func (r *Registry) Migrate(ctx context.Context) error {
	return r.ledger.Execute(ctx, func(ctx context.Context) error {
		if err := r.access.RequireOwner(ctx); err != nil {
			return err
		}
		if !r.migratedAt.Get().IsZero() {
			return dErrors.New(dErrors.CodeAlreadyMigrated, "migration already flagged")
		}
		now := requestcontext.Now(ctx)
		r.migratedAt.Set(ctx, now)
		r.emit(ctx, events.KindIdentityMigrated, map[string]string{
			"at":         strconv.FormatInt(now.Unix(), 10),
			"id_counter": strconv.FormatUint(r.counter.Current(), 10),
		})
		return nil
	})
}

// IsMigrated reports whether Migrate has been called.
func (r *Registry) IsMigrated(ctx context.Context) bool {
	var migrated bool
	_ = r.ledger.View(ctx, func(context.Context) error {
		migrated = !r.migratedAt.Get().IsZero()
		return nil
	})
	return migrated
}

// migrator runs fn as a migrator-only call: the registry must be paused and the grace
// period after Migrate must not have elapsed.
func (r *Registry) migrator(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.ledger.Execute(ctx, func(ctx context.Context) error {
		if err := r.access.RequireRole(ctx, access.RoleMigrator); err != nil {
			return err
		}
		if err := r.access.RequirePaused(); err != nil {
			return err
		}
		if at := r.migratedAt.Get(); !at.IsZero() && requestcontext.Now(ctx).After(at.Add(r.gracePeriod)) {
			return dErrors.New(dErrors.CodePermissionRevoked, "migration grace period has elapsed")
		}
		return fn(ctx)
	})
}

// BulkRegister imports identities with their original ids. The id counter is raised to the
// highest imported id so Register never reissues one. Any invalid item aborts the whole batch.
func (r *Registry) BulkRegister(ctx context.Context, items []models.BulkRegisterData) error {
	err := r.migrator(ctx, func(ctx context.Context) error {
		for _, item := range items {
			if item.ID.IsZero() {
				return dErrors.New(dErrors.CodeInvalidInput, "identity id cannot be zero")
			}
			if r.identities.Has(item.ID) {
				return dErrors.New(dErrors.CodeInvalidInput, "identity "+item.ID.String()+" already exists")
			}
			if item.Custody == (common.Address{}) {
				return dErrors.New(dErrors.CodeInvalidAddress, "custody is the zero address")
			}
			if r.byCustody.Has(item.Custody) {
				return dErrors.New(dErrors.CodeCustodyAlreadyRegistered, "custody already has an identity")
			}
			if r.byUsername.Has(models.UsernameHash(item.Username)) {
				return dErrors.New(dErrors.CodeUsernameAlreadyRegistered, "username "+item.Username+" is taken")
			}
			r.store(ctx, models.Identity{ID: item.ID, Custody: item.Custody, Username: item.Username, Recovery: item.Recovery})
			r.emitRegistered(ctx, item.ID, item.Custody, item.Username, item.Recovery)
			if uint64(item.ID) > r.counter.Current() {
				r.counter.Set(ctx, uint64(item.ID))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.logAudit(ctx, "identities_bulk_registered", "count", len(items))
	return nil
}

// SetIDCounter sets the last issued id, so the next Register issues n+1. The counter only
// moves forward: ids at or below the current value may already be issued.
func (r *Registry) SetIDCounter(ctx context.Context, n uint64) error {
	return r.migrator(ctx, func(ctx context.Context) error {
		prev := r.counter.Current()
		if n < prev {
			return dErrors.New(dErrors.CodeInvalidInput, "id counter cannot move below "+strconv.FormatUint(prev, 10))
		}
		r.counter.Set(ctx, n)
		r.emit(ctx, events.KindIdentityCounterAdjusted, map[string]string{
			"from": strconv.FormatUint(prev, 10),
			"to":   strconv.FormatUint(n, 10),
		})
		return nil
	})
}
