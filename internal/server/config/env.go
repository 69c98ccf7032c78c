package config

import (
	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name declared in Config tags.
const EnvPrefix = "GUESSGAME_"

// parseEnv overlays values from GUESSGAME_* environment variables. Unset
// variables leave the current value untouched. Malformed values panic, the
// same way a broken JSON file does.
func parseEnv(config *Config) {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}
