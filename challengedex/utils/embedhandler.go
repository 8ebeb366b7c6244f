package utils

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

// ResponseHandler provides standardized response methods for commands and components
type ResponseHandler struct{}

var EH = &ResponseHandler{}

// CreateErrorEmbed creates a standard error embed for command events
func (h *ResponseHandler) CreateErrorEmbed(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: message,
			Color:       ErrorColor,
		}},
	})
}

// CreateSuccessEmbed creates a standard success embed for command events
func (h *ResponseHandler) CreateSuccessEmbed(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: message,
			Color:       SuccessColor,
		}},
	})
}

// CreateInfoEmbed creates a standard info embed for command events
func (h *ResponseHandler) CreateInfoEmbed(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: message,
			Color:       InfoColor,
		}},
	})
}

// CreateEphemeralError creates an ephemeral error message for component events
func (h *ResponseHandler) CreateEphemeralError(event *handler.ComponentEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Content: message,
		Flags:   discord.MessageFlagEphemeral,
	})
}
