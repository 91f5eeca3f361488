package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.ObserveTransaction(time.Now(), "committed")
	m.ObserveTransaction(time.Now(), "reverted")
	m.IncrementRevert("paused")
	m.IncrementRegistration("identity")
	m.IncrementRegistration("identity")
	m.IncrementRevocation()
	m.AddEventsPublished(3)
	m.IncrementSinkFailure("kafka")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transactions.WithLabelValues("committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reverts.WithLabelValues("paused")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Registrations.WithLabelValues("identity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Revocations))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.EventsPublished))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventSinkFailures.WithLabelValues("kafka")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.TransactionDuration))
}
