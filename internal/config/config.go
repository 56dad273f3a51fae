package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Addr is the listen address for the HTTP + websocket server.
	Addr string `env:"ADDR" envDefault:":8080"`

	// CatalogDSN is the postgres DSN for the creature template catalog.
	// Empty disables the catalog routes entirely; the sync core does not
	// depend on it.
	CatalogDSN string `env:"CATALOG_DSN"`

	// MediaDir is where uploaded creature images land and are served from.
	MediaDir string `env:"MEDIA_DIR" envDefault:"./media"`

	// PublicSnapshots keeps GET snapshot reads unauthenticated. Turning it
	// off makes the snapshot routes require the current DM token.
	PublicSnapshots bool `env:"PUBLIC_SNAPSHOTS" envDefault:"true"`
}

func Load() (Config, error) {
	// .env is optional; real env always wins.
	_ = godotenv.Load()
	return env.ParseAs[Config]()
}
