package models

import "github.com/uptrace/bun"

// Ball maps the dex bot's collectible definition table (read-only, shared
// schema). Used to resolve the ball names scraped from catch messages into the
// ids that challenge filters are keyed by.
type Ball struct {
	bun.BaseModel `bun:"table:ball,alias:b"`

	ID      int64  `bun:"id,pk"`
	Country string `bun:"country,notnull"`
	Enabled bool   `bun:"enabled,notnull,default:true"`
}
