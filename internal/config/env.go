package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env holds settings read from the environment.
type Env struct {
	DBPath   string `env:"LEXIREAD_DB"`
	LogLevel string `env:"LEXIREAD_LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LEXIREAD_LOG_FILE"`
	ModelDir string `env:"LEXIREAD_MODEL_DIR"`
}

// LoadEnv loads envFile when it exists and parses the environment.
// Variables already set take priority over the file.
func LoadEnv(envFile string) (Env, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Env{}, err
		}
	}
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, err
	}
	return e, nil
}
