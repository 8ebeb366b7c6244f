package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/handler"
)

const (
	commandTimeout = 10 * time.Second
	slowThreshold  = 2 * time.Second
)

// WrapWithLogging wraps a command handler with start/finish logging and a
// hard timeout.
func WrapWithLogging(name string, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		start := time.Now()

		slog.Info("Command started",
			slog.String("type", "cmd"),
			slog.String("name", name),
			slog.String("user_id", e.User().ID.String()),
			slog.String("user_name", e.User().Username),
			slog.String("guild_id", e.GuildID().String()),
			slog.String("channel_id", e.ChannelID().String()),
		)

		done := make(chan error, 1)
		go func() {
			done <- h(e)
		}()

		select {
		case err := <-done:
			logOutcome("cmd", name, e.User().ID.String(), e.User().Username, time.Since(start), err)
			return err
		case <-time.After(commandTimeout):
			slog.Error("Command timed out",
				slog.String("type", "cmd"),
				slog.String("name", name),
				slog.String("user_id", e.User().ID.String()),
				slog.String("status", "timeout"),
				slog.Duration("timeout", commandTimeout),
			)
			return fmt.Errorf("command timed out after %s", commandTimeout)
		}
	}
}

// WrapComponentWithLogging does the same for component interactions.
func WrapComponentWithLogging(name string, h handler.ComponentHandler) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		start := time.Now()

		slog.Info("Component interaction started",
			slog.String("type", "component"),
			slog.String("name", name),
			slog.String("user_id", e.User().ID.String()),
			slog.String("user_name", e.User().Username),
		)

		done := make(chan error, 1)
		go func() {
			done <- h(e)
		}()

		select {
		case err := <-done:
			logOutcome("component", name, e.User().ID.String(), e.User().Username, time.Since(start), err)
			return err
		case <-time.After(commandTimeout):
			slog.Error("Component interaction timed out",
				slog.String("type", "component"),
				slog.String("name", name),
				slog.String("user_id", e.User().ID.String()),
				slog.String("status", "timeout"),
				slog.Duration("timeout", commandTimeout),
			)
			return fmt.Errorf("component interaction timed out after %s", commandTimeout)
		}
	}
}

func logOutcome(kind, name, userID, userName string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", kind),
		slog.String("name", name),
		slog.String("user_id", userID),
		slog.String("user_name", userName),
		slog.Duration("took", duration),
	}

	switch {
	case err != nil:
		slog.Error("Command failed", append(attrs,
			slog.Any("error", err),
			slog.String("status", "failed"),
		)...)
	case duration > slowThreshold:
		slog.Warn("Command executed slowly", append(attrs,
			slog.String("status", "slow"),
		)...)
	default:
		slog.Info("Command completed", append(attrs,
			slog.String("status", "success"),
		)...)
	}
}
