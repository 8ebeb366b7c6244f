package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/challengedex/challenge-bot/challengedex"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/events"
	lru "github.com/hashicorp/golang-lru"
)

const (
	dedupCacheSize = 2048
	applyTimeout   = 15 * time.Second
)

// NewMessageHandler returns the gateway listener that feeds the progress
// engine. It watches only the configured dex bot, drops messages already seen
// (the gateway redelivers on resume) and hands classified events to the engine
// off the listener goroutine.
func NewMessageHandler(b *challengedex.Bot) bot.EventListener {
	seen, _ := lru.New(dedupCacheSize)

	return bot.NewListenerFunc(func(e *events.MessageCreate) {
		if e.Message.Author.ID != b.Cfg.Challenges.DexBotID {
			return
		}

		if found, _ := seen.ContainsOrAdd(e.MessageID, struct{}{}); found {
			return
		}

		message := e.Message
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
			defer cancel()

			for _, ev := range b.Classifier.Classify(ctx, message) {
				if err := b.ProgressEngine.Apply(ctx, ev); err != nil {
					slog.Error("Failed to apply contribution event",
						slog.String("type", "engine"),
						slog.String("player_id", ev.PlayerID),
						slog.String("kind", ev.Kind),
						slog.Any("error", err))
				}
			}
		}()
	})
}
