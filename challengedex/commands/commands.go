package commands

import (
	"github.com/challengedex/challenge-bot/challengedex/commands/admin"
	"github.com/disgoorg/disgo/discord"
)

var Commands = []discord.ApplicationCommandCreate{}

func init() {
	Commands = append(Commands,
		Challenges,
		Contributors,
		Version,
	)
	Commands = append(Commands, admin.Commands...)
}
