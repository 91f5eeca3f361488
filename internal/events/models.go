// Package events is the durable event log of the registries.
//
// Components call Emit while a ledger call runs. Events are buffered on the call context and
// published only when the call commits, so a reverted call never leaves events behind.
// The Publisher assigns sequence numbers, appends to the canonical Store and hands each
// event to the Worker, which fans out to downstream sinks (Redis streams, Kafka, Postgres).
package events

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Kind names a state transition.
type Kind string

const (
	KindIdentityRegistered          Kind = "identity.registered"
	KindIdentityCustodyTransferred  Kind = "identity.custody_transferred"
	KindIdentityUsernameChanged     Kind = "identity.username_changed"
	KindIdentityUsernameTransferred Kind = "identity.username_transferred"
	KindIdentityRecoveryChanged     Kind = "identity.recovery_changed"
	KindIdentityRecovered           Kind = "identity.recovered"
	KindIdentityCounterAdjusted     Kind = "identity.counter_adjusted"
	KindIdentityMigrated            Kind = "identity.migrated"
	KindGatewayChanged              Kind = "registry.gateway_changed"
	KindGatewayFrozen               Kind = "registry.gateway_frozen"
	KindDelegationOracleChanged     Kind = "identity.delegation_oracle_changed"
	KindDelegationGranted           Kind = "delegation.granted"
	KindDelegationRevoked           Kind = "delegation.revoked"

	KindProvenanceRegistered  Kind = "provenance.registered"
	KindProvenanceNftAssigned Kind = "provenance.nft_assigned"
	KindProvenanceFeeChanged  Kind = "provenance.fee_changed"
	KindProvenanceWithdrawn   Kind = "provenance.fees_withdrawn"

	KindSchemaRegistered           Kind = "schema.registered"
	KindAttestationAttested        Kind = "attestation.attested"
	KindAttestationRevoked         Kind = "attestation.revoked"
	KindAttestationTimestamped     Kind = "attestation.timestamped"
	KindAttestationRevokedOffchain Kind = "attestation.revoked_offchain"
	KindResolverAllowlistChanged   Kind = "resolver.allowlist_changed"

	KindPaused           Kind = "access.paused"
	KindUnpaused         Kind = "access.unpaused"
	KindRoleGranted      Kind = "access.role_granted"
	KindRoleRevoked      Kind = "access.role_revoked"
	KindOwnershipChanged Kind = "access.ownership_transferred"
	KindNonceUsed        Kind = "nonce.used"
)

// Event is one committed state transition. Fields carry the transition's payload as
// display strings (decimal ids, 0x hex hashes and addresses).
type Event struct {
	Seq         uint64            `json:"seq"`
	Kind        Kind              `json:"kind"`
	Contract    common.Address    `json:"contract"`
	BlockNumber uint64            `json:"block_number"`
	Time        time.Time         `json:"time"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// Filter selects events from a Store. Zero values match everything.
type Filter struct {
	Kind     Kind
	Contract common.Address
	FromSeq  uint64
	Limit    int
}

func (f Filter) matches(e Event) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.Contract != (common.Address{}) && e.Contract != f.Contract {
		return false
	}
	return e.Seq >= f.FromSeq
}

// Store persists the canonical, ordered event log.
type Store interface {
	// Append assigns sequence numbers and persists the events, returning them as stored.
	Append(ctx context.Context, evs []Event) ([]Event, error)
	List(ctx context.Context, filter Filter) ([]Event, error)
}

// Sink receives committed events after they are stored. Delivery is at-least-once;
// sinks must tolerate replays of the same Seq.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev Event) error
}
