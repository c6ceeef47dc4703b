package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/trixlive/backend/pkg/xcontext"
)

// UpdateSource is the part of the platform client the poller needs.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Poll long-polls the platform and emits the updates the bot handles. The
// returned channel is closed once ctx is done.
func Poll(ctx context.Context, source UpdateSource, timeoutSeconds int) <-chan Event {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = timeoutSeconds
	cfg.AllowedUpdates = []string{"message", "callback_query"}

	updates := source.GetUpdatesChan(cfg)
	events := make(chan Event)

	go func() {
		defer close(events)
		defer source.StopReceivingUpdates()

		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-updates:
				if !ok {
					return
				}

				ev, ok := FromUpdate(u)
				if !ok {
					xcontext.Logger(ctx).Debugf("Skip update %d", u.UpdateID)
					continue
				}

				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events
}
