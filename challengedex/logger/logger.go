package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorWhite  = "\033[37m"
)

type LogType string

const (
	TypeCommand LogType = "CMD"
	TypeDB      LogType = "DB"
	TypeEngine  LogType = "ENG"
	TypeSystem  LogType = "SYS"
)

type CustomHandler struct {
	opts      *slog.HandlerOptions
	startTime time.Time
	attrs     []slog.Attr
	groups    []string
}

func NewHandler() *CustomHandler {
	return &CustomHandler{
		opts:      &slog.HandlerOptions{Level: slog.LevelDebug},
		startTime: time.Now(),
		attrs:     make([]slog.Attr, 0),
		groups:    make([]string, 0),
	}
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CustomHandler{
		opts:      h.opts,
		startTime: h.startTime,
		attrs:     append(h.attrs, attrs...),
		groups:    h.groups,
	}
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	return &CustomHandler{
		opts:      h.opts,
		startTime: h.startTime,
		attrs:     h.attrs,
		groups:    append(h.groups, name),
	}
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	if shouldSkipLog(&r) {
		return nil
	}

	timestamp := time.Now().Format("15:04:05")

	var levelColor, levelText string
	switch r.Level {
	case slog.LevelDebug:
		levelColor = colorPurple
		levelText = "DEBUG"
	case slog.LevelInfo:
		levelColor = colorGreen
		levelText = "INFO"
	case slog.LevelWarn:
		levelColor = colorYellow
		levelText = "WARN"
	case slog.LevelError:
		levelColor = colorRed
		levelText = "ERROR"
	}

	message := r.Message
	if status := attrString(&r, "status"); status != "" {
		message = fmt.Sprintf("%s [Status: %s]", message, status)
	}
	if errDetails := attrString(&r, "error"); errDetails != "" && r.Level == slog.LevelError {
		message = fmt.Sprintf("%s: %s", message, errDetails)
	}

	var attrsStr strings.Builder
	appendAttr := func(a slog.Attr) {
		if !isInternalAttr(a.Key) {
			fmt.Fprintf(&attrsStr, " %s=%v", a.Key, a.Value)
		}
	}
	for _, attr := range h.attrs {
		appendAttr(attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(a)
		return true
	})

	fmt.Printf("%s[ChallengeDex] [%s] [%s%s%s] [%s] %s%s%s\n",
		colorWhite,
		timestamp,
		levelColor,
		levelText,
		colorWhite,
		getLogType(&r),
		message,
		attrsStr.String(),
		colorReset,
	)

	return nil
}

// Gateway internals are far too chatty for a bot log.
func shouldSkipLog(r *slog.Record) bool {
	skippedMessages := []string{
		"locking buckets",
		"unlocking buckets",
		"gateway event",
		"binary message received",
		"received gateway message",
		"opening gateway connection",
		"locking gateway rate limiter",
		"unlocking gateway rate limiter",
		"sending gateway command",
		"new request",
		"new response",
		"locking rest bucket",
		"unlocking rest bucket",
		"rate limit response headers",
		"sending heartbeat",
	}

	lower := strings.ToLower(r.Message)
	for _, skip := range skippedMessages {
		if strings.Contains(lower, skip) {
			return true
		}
	}
	return false
}

func getLogType(r *slog.Record) LogType {
	switch attrString(r, "type") {
	case "cmd":
		return TypeCommand
	case "db":
		return TypeDB
	case "engine":
		return TypeEngine
	default:
		return TypeSystem
	}
}

func attrString(r *slog.Record, key string) string {
	var val string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			val = a.Value.String()
			return false
		}
		return true
	})
	return val
}

func isInternalAttr(key string) bool {
	switch key {
	case "type", "status", "error":
		return true
	}
	return false
}
