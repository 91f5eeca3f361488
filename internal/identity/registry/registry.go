// Package registry is the canonical identity store: id issuance, custody, usernames and
// recovery. Every state-changing entry point is reserved to the IdentityGateway; bulk
// imports are reserved to migrators during the migration window.
package registry

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"provenance/internal/access"
	"provenance/internal/events"
	"provenance/internal/identity/delegation"
	"provenance/internal/identity/models"
	"provenance/internal/ledger"
	"provenance/internal/platform/metrics"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

// DefaultMigrationGracePeriod is how long migrators keep their privilege after Migrate.
const DefaultMigrationGracePeriod = 24 * time.Hour

type Registry struct {
	ledger  *ledger.Ledger
	access  *access.Control
	address common.Address

	gateway    *ledger.Cell[common.Address]
	oracle     *ledger.Cell[delegation.Oracle]
	counter    ledger.Counter
	identities *ledger.Map[domain.IdentityID, models.Identity]
	byCustody  *ledger.Map[common.Address, domain.IdentityID]
	byUsername *ledger.Map[common.Hash, domain.IdentityID]
	migratedAt *ledger.Cell[time.Time]

	gracePeriod time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

func WithMigrationGracePeriod(d time.Duration) Option {
	return func(r *Registry) { r.gracePeriod = d }
}

// New creates a registry deployed at address and owned by owner.
func New(l *ledger.Ledger, address, owner common.Address, opts ...Option) *Registry {
	r := &Registry{
		ledger:      l,
		access:      access.New(l, address, owner),
		address:     address,
		gateway:     ledger.NewCell(common.Address{}),
		oracle:      ledger.NewCell[delegation.Oracle](nil),
		identities:  ledger.NewMap[domain.IdentityID, models.Identity](),
		byCustody:   ledger.NewMap[common.Address, domain.IdentityID](),
		byUsername:  ledger.NewMap[common.Hash, domain.IdentityID](),
		migratedAt:  ledger.NewCell(time.Time{}),
		gracePeriod: DefaultMigrationGracePeriod,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Address() common.Address { return r.address }
func (r *Registry) Access() *access.Control { return r.access }
func (r *Registry) Ledger() *ledger.Ledger  { return r.ledger }

// -----------------------------------------------------------------------------
// Administration
// -----------------------------------------------------------------------------

// SetGateway sets the only address allowed to call the privileged entry points. Owner only.
func (r *Registry) SetGateway(ctx context.Context, gateway common.Address) error {
	return r.ledger.Execute(ctx, func(ctx context.Context) error {
		if err := r.access.RequireOwner(ctx); err != nil {
			return err
		}
		prev := r.gateway.Get()
		r.gateway.Set(ctx, gateway)
		r.emit(ctx, events.KindGatewayChanged, map[string]string{"from": prev.Hex(), "to": gateway.Hex()})
		return nil
	})
}

// Gateway returns the configured gateway address.
func (r *Registry) Gateway(ctx context.Context) common.Address {
	var gw common.Address
	_ = r.ledger.View(ctx, func(context.Context) error {
		gw = r.gateway.Get()
		return nil
	})
	return gw
}

// SetDelegationOracle swaps the oracle consulted by CanAct. Owner only. A nil oracle
// disables delegation: only an identity acts for itself.
func (r *Registry) SetDelegationOracle(ctx context.Context, oracle delegation.Oracle) error {
	return r.ledger.Execute(ctx, func(ctx context.Context) error {
		if err := r.access.RequireOwner(ctx); err != nil {
			return err
		}
		r.oracle.Set(ctx, oracle)
		r.emit(ctx, events.KindDelegationOracleChanged, nil)
		return nil
	})
}

// privileged runs fn as a gateway-only, pausable call.
func (r *Registry) privileged(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.ledger.Execute(ctx, func(ctx context.Context) error {
		gw := r.gateway.Get()
		if gw == (common.Address{}) || requestcontext.Caller(ctx) != gw {
			return dErrors.New(dErrors.CodeOnlyGateway, "caller is not the identity gateway")
		}
		if err := r.access.RequireNotPaused(); err != nil {
			return err
		}
		return fn(ctx)
	})
}

// -----------------------------------------------------------------------------
// Gateway entry points
// -----------------------------------------------------------------------------

// Register issues the next id to custody.
func (r *Registry) Register(ctx context.Context, custody common.Address, username string, recovery common.Address) (domain.IdentityID, error) {
	var id domain.IdentityID
	err := r.privileged(ctx, func(ctx context.Context) error {
		if custody == (common.Address{}) {
			return dErrors.New(dErrors.CodeInvalidAddress, "custody is the zero address")
		}
		if r.byCustody.Has(custody) {
			return dErrors.New(dErrors.CodeCustodyAlreadyRegistered, "custody already has an identity")
		}
		hash := models.UsernameHash(username)
		if r.byUsername.Has(hash) {
			return dErrors.New(dErrors.CodeUsernameAlreadyRegistered, "username is taken")
		}
		id = domain.IdentityID(r.counter.Next(ctx))
		if r.identities.Has(id) {
			return dErrors.New(dErrors.CodeInternal, "identity "+id.String()+" already issued")
		}
		r.store(ctx, models.Identity{ID: id, Custody: custody, Username: username, Recovery: recovery})
		r.emitRegistered(ctx, id, custody, username, recovery)
		ledger.AfterCommit(ctx, func() {
			if r.metrics != nil {
				r.metrics.IncrementRegistration("identity")
			}
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.logAudit(ctx, "identity_registered", "identity_id", id.String(), "custody", custody.Hex())
	return id, nil
}

// Transfer moves custody of id to to.
func (r *Registry) Transfer(ctx context.Context, id domain.IdentityID, to common.Address) error {
	return r.privileged(ctx, func(ctx context.Context) error {
		from, err := r.moveCustody(ctx, id, to, false)
		if err != nil {
			return err
		}
		r.emit(ctx, events.KindIdentityCustodyTransferred, map[string]string{
			"id": id.String(), "from": from.Hex(), "to": to.Hex(),
		})
		return nil
	})
}

// TransferAndClearRecovery moves custody and removes the recovery address in one step.
func (r *Registry) TransferAndClearRecovery(ctx context.Context, id domain.IdentityID, to common.Address) error {
	return r.privileged(ctx, func(ctx context.Context) error {
		from, err := r.moveCustody(ctx, id, to, true)
		if err != nil {
			return err
		}
		r.emit(ctx, events.KindIdentityCustodyTransferred, map[string]string{
			"id": id.String(), "from": from.Hex(), "to": to.Hex(), "recovery_cleared": "true",
		})
		r.emit(ctx, events.KindIdentityRecoveryChanged, map[string]string{
			"id": id.String(), "recovery": common.Address{}.Hex(),
		})
		return nil
	})
}

// Recover moves custody of id to to on behalf of the recovery address.
func (r *Registry) Recover(ctx context.Context, id domain.IdentityID, to common.Address) error {
	return r.privileged(ctx, func(ctx context.Context) error {
		from, err := r.moveCustody(ctx, id, to, false)
		if err != nil {
			return err
		}
		ident, _ := r.identities.Get(id)
		r.emit(ctx, events.KindIdentityRecovered, map[string]string{
			"id": id.String(), "from": from.Hex(), "to": to.Hex(), "recovery": ident.Recovery.Hex(),
		})
		return nil
	})
}

// ChangeUsername replaces id's username.
func (r *Registry) ChangeUsername(ctx context.Context, id domain.IdentityID, username string) error {
	return r.privileged(ctx, func(ctx context.Context) error {
		ident, err := r.identity(id)
		if err != nil {
			return err
		}
		r.byUsername.Delete(ctx, models.UsernameHash(ident.Username))
		hash := models.UsernameHash(username)
		if r.byUsername.Has(hash) {
			return dErrors.New(dErrors.CodeUsernameAlreadyRegistered, "username is taken")
		}
		r.byUsername.Set(ctx, hash, id)
		prev := ident.Username
		ident.Username = username
		r.identities.Set(ctx, id, ident)
		r.emit(ctx, events.KindIdentityUsernameChanged, map[string]string{
			"id": id.String(), "from": prev, "to": username,
		})
		return nil
	})
}

// TransferUsername gives fromID's username to toID and renames fromID to newFromUsername.
// toID's previous username is released first, so newFromUsername may be that name (a swap).
func (r *Registry) TransferUsername(ctx context.Context, fromID, toID domain.IdentityID, newFromUsername string) error {
	return r.privileged(ctx, func(ctx context.Context) error {
		if fromID == toID {
			return dErrors.New(dErrors.CodeInvalidInput, "cannot transfer a username to the same identity")
		}
		from, err := r.identity(fromID)
		if err != nil {
			return err
		}
		to, err := r.identity(toID)
		if err != nil {
			return err
		}
		movedHash := models.UsernameHash(from.Username)
		r.byUsername.Delete(ctx, movedHash)
		r.byUsername.Delete(ctx, models.UsernameHash(to.Username))

		r.byUsername.Set(ctx, movedHash, toID)
		newHash := models.UsernameHash(newFromUsername)
		if r.byUsername.Has(newHash) {
			return dErrors.New(dErrors.CodeUsernameAlreadyRegistered, "username is taken")
		}
		r.byUsername.Set(ctx, newHash, fromID)

		moved, released := from.Username, to.Username
		to.Username = moved
		from.Username = newFromUsername
		r.identities.Set(ctx, toID, to)
		r.identities.Set(ctx, fromID, from)
		r.emit(ctx, events.KindIdentityUsernameTransferred, map[string]string{
			"from_id":           fromID.String(),
			"to_id":             toID.String(),
			"username":          moved,
			"released_username": released,
			"new_from_username": newFromUsername,
		})
		return nil
	})
}

// ChangeRecovery sets id's recovery address. The zero address disables recovery.
func (r *Registry) ChangeRecovery(ctx context.Context, id domain.IdentityID, recovery common.Address) error {
	return r.privileged(ctx, func(ctx context.Context) error {
		ident, err := r.identity(id)
		if err != nil {
			return err
		}
		ident.Recovery = recovery
		r.identities.Set(ctx, id, ident)
		r.emit(ctx, events.KindIdentityRecoveryChanged, map[string]string{
			"id": id.String(), "recovery": recovery.Hex(),
		})
		return nil
	})
}

// moveCustody clears the old reverse mapping before setting the new one.
func (r *Registry) moveCustody(ctx context.Context, id domain.IdentityID, to common.Address, clearRecovery bool) (common.Address, error) {
	ident, err := r.identity(id)
	if err != nil {
		return common.Address{}, err
	}
	if to == (common.Address{}) {
		return common.Address{}, dErrors.New(dErrors.CodeInvalidAddress, "recipient is the zero address")
	}
	if r.byCustody.Has(to) {
		return common.Address{}, dErrors.New(dErrors.CodeCustodyAlreadyRegistered, "recipient already has an identity")
	}
	from := ident.Custody
	r.byCustody.Delete(ctx, from)
	r.byCustody.Set(ctx, to, id)
	ident.Custody = to
	if clearRecovery {
		ident.Recovery = common.Address{}
	}
	r.identities.Set(ctx, id, ident)
	return from, nil
}

func (r *Registry) identity(id domain.IdentityID) (models.Identity, error) {
	ident, ok := r.identities.Get(id)
	if !ok {
		return models.Identity{}, dErrors.New(dErrors.CodeIdentityNotFound, "identity not found")
	}
	return ident, nil
}

func (r *Registry) store(ctx context.Context, ident models.Identity) {
	r.identities.Set(ctx, ident.ID, ident)
	r.byCustody.Set(ctx, ident.Custody, ident.ID)
	r.byUsername.Set(ctx, models.UsernameHash(ident.Username), ident.ID)
}

func (r *Registry) emitRegistered(ctx context.Context, id domain.IdentityID, custody common.Address, username string, recovery common.Address) {
	r.emit(ctx, events.KindIdentityRegistered, map[string]string{
		"id":       id.String(),
		"custody":  custody.Hex(),
		"username": username,
		"recovery": recovery.Hex(),
	})
}

func (r *Registry) emit(ctx context.Context, kind events.Kind, fields map[string]string) {
	events.Emit(ctx, events.Event{Kind: kind, Contract: r.address, Fields: fields})
}

// logAudit emits an audit-style structured log entry.
func (r *Registry) logAudit(ctx context.Context, event string, attrs ...any) {
	if r.logger == nil {
		return
	}
	args := append(attrs, "event", event, "log_type", "audit")
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	r.logger.InfoContext(ctx, event, args...)
}
