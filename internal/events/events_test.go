package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoopPublisher_AcceptsEverything(t *testing.T) {
	var p Publisher = NoopPublisher{}
	require.NoError(t, p.Publish(context.Background(), Event{Type: TypeScanCompleted}))
	require.NoError(t, p.Close())
}

func TestNewNATSPublisher_RequiresSubject(t *testing.T) {
	_, err := NewNATSPublisher("nats://localhost:4222", "")
	require.Error(t, err)
}
