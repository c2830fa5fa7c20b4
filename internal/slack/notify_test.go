package slack

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexkudos/kudos/internal/model"
)

func samplePraise(receiverSlackID string) *model.Praise {
	return &model.Praise{
		ID:            7,
		Giver:         model.User{FirstName: "Ada"},
		Receiver:      model.User{FirstName: "Bob", SlackID: receiverSlackID},
		CoreValue:     model.CoreValue{Name: "Teamwork"},
		Message:       "Paired all afternoon",
		PointsAwarded: 10,
	}
}

func TestNotifier_PostsToReceiver(t *testing.T) {
	stub := newSlackStub(t)
	n := NewNotifier("xoxb-test", stub.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))

	n.PraiseGiven(context.Background(), samplePraise("UBOB"))

	sent := stub.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "UBOB", sent[0].Channel)
	assert.Contains(t, sent[0].Text, "You received praise from Ada!")
	assert.Contains(t, sent[0].Text, "*Teamwork*")
	assert.Contains(t, sent[0].Text, "+10 points")
}

func TestNotifier_SkipsUnlinkedReceiver(t *testing.T) {
	stub := newSlackStub(t)
	n := NewNotifier("xoxb-test", stub.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))

	n.PraiseGiven(context.Background(), samplePraise(""))

	assert.Empty(t, stub.Sent())
}

func TestNotifier_FailureIsLoggedOnly(t *testing.T) {
	stub := newSlackStub(t)
	stub.fail = true
	var logs bytes.Buffer
	n := NewNotifier("xoxb-test", stub.URL, slog.New(slog.NewTextHandler(&logs, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n.PraiseGiven(ctx, samplePraise("UBOB"))

	assert.Contains(t, logs.String(), "slack notification failed")
	assert.Contains(t, logs.String(), "channel_not_found", "a cancelled request context still reaches Slack")
}
