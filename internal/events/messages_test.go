package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMutationMessageJSON(t *testing.T) {
	msg := NewMutationMessage("accounting_operation", ActionSaved, 12)
	require.False(t, msg.Timestamp.IsZero())

	body, err := msg.ToJSON()
	require.NoError(t, err)

	got, err := MutationMessageFromJSON(body)
	require.NoError(t, err)
	require.Equal(t, "accounting_operation", got.Entity)
	require.Equal(t, ActionSaved, got.Action)
	require.EqualValues(t, 12, got.ID)
}

func TestMutationMessageFromBadJSON(t *testing.T) {
	_, err := MutationMessageFromJSON([]byte("not json"))
	require.Error(t, err)
}

func TestNilClient(t *testing.T) {
	var c *Client
	require.NoError(t, c.Publish(context.Background(), "person", ActionDeleted, 1))
	require.NoError(t, c.Close())
}
