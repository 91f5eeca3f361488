package sinks_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"provenance/internal/events/sinks"
)

func TestNewKafkaRequiresBrokers(t *testing.T) {
	_, err := sinks.NewKafka(nil, "registry-events")
	require.Error(t, err)
}
