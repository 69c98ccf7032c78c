package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/guessgame/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so the file may contain "90s" or integer nanoseconds.
// Fields left out of the file keep their previous value.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC      string         `json:"endpoint_addr_grpc"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	LockTimeout           timex.Duration `json:"lock_timeout"`
	MaxNumber             int            `json:"max_number"`
	WinProbability        *float64       `json:"win_probability"`
	WinScoreBonus         int            `json:"win_score_bonus"`
	TurnsPerPurchase      int            `json:"turns_per_purchase"`
	InitialTurns          *int           `json:"initial_turns"`
	LeaderboardSize       int            `json:"leaderboard_size"`
	PaymentBaseURL        string         `json:"payment_base_url"`
	HealthCheckInterval   timex.Duration `json:"health_check_interval"`
	LogBackend            string         `json:"log_backend"`
	LogFormat             string         `json:"log_format"`
}

// parseJson loads configuration values from the file named by -c/-config
// into config. Without the flag nothing happens. An unreadable file or
// invalid JSON panics.
func parseJson(config *Config) {
	path := configFilePath()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.PaymentBaseURL, c.PaymentBaseURL)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogFormat, c.LogFormat)

	if c.TokenValidityDuration.Duration > 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.LockTimeout.Duration > 0 {
		config.LockTimeout = c.LockTimeout.Duration
	}
	if c.HealthCheckInterval.Duration > 0 {
		config.HealthCheckInterval = c.HealthCheckInterval.Duration
	}

	if c.MaxNumber != 0 {
		config.MaxNumber = c.MaxNumber
	}
	if c.WinProbability != nil {
		config.WinProbability = *c.WinProbability
	}
	if c.WinScoreBonus != 0 {
		config.WinScoreBonus = c.WinScoreBonus
	}
	if c.TurnsPerPurchase != 0 {
		config.TurnsPerPurchase = c.TurnsPerPurchase
	}
	if c.InitialTurns != nil {
		config.InitialTurns = *c.InitialTurns
	}
	if c.LeaderboardSize != 0 {
		config.LeaderboardSize = c.LeaderboardSize
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
