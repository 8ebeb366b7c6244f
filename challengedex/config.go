package challengedex

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log        LogConfig        `toml:"log"`
	Bot        BotConfig        `toml:"bot"`
	DB         DBConfig         `toml:"db"`
	Challenges ChallengesConfig `toml:"challenges"`
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	Token     string         `toml:"token"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

// ChallengesConfig holds the static knobs of the challenge engine. Runtime-mutable
// settings (master switch, announcement channel) live in the challenge_settings
// table instead so admins can flip them without a redeploy.
type ChallengesConfig struct {
	// DexBotID is the collectibles bot whose messages are scraped for
	// contribution events.
	DexBotID snowflake.ID `toml:"dex_bot_id"`
	// ActiveCacheSeconds bounds staleness of the active-challenge snapshot.
	ActiveCacheSeconds int `toml:"active_cache_seconds"`
	// AnnouncementChannelID seeds the settings row on first start.
	AnnouncementChannelID snowflake.ID `toml:"announcement_channel_id"`
}
