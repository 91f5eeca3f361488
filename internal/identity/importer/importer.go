// Package importer seeds an identity registry from a snapshot of a prior deployment.
//
// A snapshot is a YAML document:
//
//	identities:
//	  - id: 1
//	    custody: "0x..."
//	    username: alice
//	    recovery: "0x..."   # optional
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"provenance/internal/access"
	"provenance/internal/identity/models"
	"provenance/internal/ledger"
	"provenance/pkg/domain"
)

// DefaultBatchSize bounds how many identities go into one BulkRegister call.
const DefaultBatchSize = 500

type snapshot struct {
	Identities []entry `yaml:"identities"`
}

type entry struct {
	ID       uint64 `yaml:"id"`
	Custody  string `yaml:"custody"`
	Username string `yaml:"username"`
	Recovery string `yaml:"recovery"`
}

// Registry is the migration surface of the identity registry.
type Registry interface {
	Access() *access.Control
	Ledger() *ledger.Ledger
	BulkRegister(ctx context.Context, items []models.BulkRegisterData) error
	SetIDCounter(ctx context.Context, n uint64) error
	IDCounter(ctx context.Context) uint64
	Migrate(ctx context.Context) error
}

// Load parses a snapshot and sorts it by id.
func Load(r io.Reader) ([]models.BulkRegisterData, error) {
	var snap snapshot
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	items := make([]models.BulkRegisterData, 0, len(snap.Identities))
	for i, e := range snap.Identities {
		if e.ID == 0 {
			return nil, fmt.Errorf("identity %d: id is required", i)
		}
		custody, err := domain.ParseAddress(e.Custody)
		if err != nil {
			return nil, fmt.Errorf("identity %d: custody: %w", e.ID, err)
		}
		recovery, err := domain.ParseOptionalAddress(e.Recovery)
		if err != nil {
			return nil, fmt.Errorf("identity %d: recovery: %w", e.ID, err)
		}
		if err := models.ValidateUsername(e.Username); err != nil {
			return nil, fmt.Errorf("identity %d: %w", e.ID, err)
		}
		items = append(items, models.BulkRegisterData{
			ID:       domain.IdentityID(e.ID),
			Custody:  custody,
			Username: e.Username,
			Recovery: recovery,
		})
	}
	slices.SortFunc(items, func(a, b models.BulkRegisterData) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return items, nil
}

// Importer replays a snapshot into a registry as its owner.
type Importer struct {
	registry  Registry
	owner     common.Address
	batchSize int
	logger    *slog.Logger
}

func New(registry Registry, owner common.Address, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{registry: registry, owner: owner, batchSize: DefaultBatchSize, logger: logger}
}

// Apply pauses the registry, imports items, moves the id counter past the highest
// imported id, flags the migration and unpauses. It is all-or-nothing. ctx must carry the
// owner as caller.
func (im *Importer) Apply(ctx context.Context, items []models.BulkRegisterData) error {
	if len(items) == 0 {
		return nil
	}
	control := im.registry.Access()
	err := im.registry.Ledger().Execute(ctx, func(ctx context.Context) error {
		if err := control.Pause(ctx); err != nil {
			return fmt.Errorf("pause registry: %w", err)
		}
		if err := control.GrantRole(ctx, access.RoleMigrator, im.owner); err != nil {
			return fmt.Errorf("grant migrator: %w", err)
		}
		var highest uint64
		for batch := range slices.Chunk(items, im.batchSize) {
			if err := im.registry.BulkRegister(ctx, batch); err != nil {
				return fmt.Errorf("bulk register from id %s: %w", batch[0].ID, err)
			}
			highest = max(highest, uint64(batch[len(batch)-1].ID))
		}
		highest = max(highest, im.registry.IDCounter(ctx))
		if err := im.registry.SetIDCounter(ctx, highest); err != nil {
			return fmt.Errorf("set id counter: %w", err)
		}
		if err := im.registry.Migrate(ctx); err != nil {
			return fmt.Errorf("flag migration: %w", err)
		}
		if err := control.RevokeRole(ctx, access.RoleMigrator, im.owner); err != nil {
			return fmt.Errorf("revoke migrator: %w", err)
		}
		return control.Unpause(ctx)
	})
	if err != nil {
		return err
	}
	im.logger.InfoContext(ctx, "identities imported",
		"count", len(items),
		"id_counter", items[len(items)-1].ID.String(),
	)
	return nil
}
