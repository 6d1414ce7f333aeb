package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// parseEnv overlays environment variables onto config. When envPath is set
// that dotenv file must exist; otherwise a ./.env file is loaded if present.
// Variables already in the environment win over dotenv entries.
func parseEnv(config *Config, envPath string) error {
	switch {
	case envPath != "":
		if err := godotenv.Load(envPath); err != nil {
			return err
		}
	default:
		if _, err := os.Stat(".env"); err == nil {
			if err := godotenv.Load(); err != nil {
				return err
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	return env.Parse(config)
}
