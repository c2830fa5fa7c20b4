package slack

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	slackapi "github.com/slack-go/slack"

	"github.com/apexkudos/kudos/internal/model"
	"github.com/apexkudos/kudos/internal/service"
)

const notifyTimeout = 5 * time.Second

var _ service.PraiseNotifier = (*Notifier)(nil)

// Notifier DMs praise receivers through the Slack Web API.
type Notifier struct {
	client *slackapi.Client
	logger *slog.Logger
}

// NewNotifier builds a Notifier for a bot token. An empty apiURL uses
// Slack's public endpoint.
func NewNotifier(botToken, apiURL string, logger *slog.Logger) *Notifier {
	var opts []slackapi.Option
	if apiURL != "" {
		opts = append(opts, slackapi.OptionAPIURL(apiURL))
	}
	return &Notifier{
		client: slackapi.New(botToken, opts...),
		logger: logger,
	}
}

// PraiseGiven posts the praise to the receiver's Slack user ID, which opens
// a DM with the bot. Delivery failures are logged only.
func (n *Notifier) PraiseGiven(ctx context.Context, p *model.Praise) {
	if p.Receiver.SlackID == "" {
		return
	}

	// Detached from the request: the praise is already committed.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	_, _, err := n.client.PostMessageContext(ctx, p.Receiver.SlackID,
		slackapi.MsgOptionText(praiseMessage(p), false),
	)
	if err != nil {
		n.logger.Warn("slack notification failed",
			slog.Int64("praiseID", p.ID),
			slog.String("slackID", p.Receiver.SlackID),
			slog.String("error", err.Error()),
		)
		return
	}
	n.logger.Debug("slack notification sent", slog.Int64("praiseID", p.ID))
}

func praiseMessage(p *model.Praise) string {
	return fmt.Sprintf("🎉 You received praise from %s!\n\n*%s*\n\"%s\"\n\n+%d points",
		p.Giver.FirstName, p.CoreValue.Name, p.Message, p.PointsAwarded)
}
