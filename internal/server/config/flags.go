package config

import (
	"flag"
	"os"
	"time"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string    HTTP bind address (e.g., ":8080")
//	-g string    gRPC health bind address (e.g., ":50051")
//	-d string    PostgreSQL DSN
//	-s string    token HMAC secret key
//	-t int       token validity, minutes
//	-l duration  ledger lock timeout (e.g., "3s")
//	-m int       largest number a player may guess
//	-w float     unconditional win probability
//	-b int       score bonus per win
//	-p int       turns granted per purchase
//	-i int       turns granted on registration
//	-n int       leaderboard size
//
// Flag -t is accepted in minutes and only applied when given explicitly,
// so a sub-minute validity from JSON or env survives.
func parseFlags(config *Config) {
	args := filterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-s", "-t", "-l", "-m", "-w", "-b", "-p", "-i", "-n"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to serve HTTP on")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to serve gRPC health on")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")

	fs.DurationVar(&config.LockTimeout, "l", config.LockTimeout, "ledger lock timeout")
	fs.IntVar(&config.MaxNumber, "m", config.MaxNumber, "max guessable number")
	fs.Float64Var(&config.WinProbability, "w", config.WinProbability, "bonus win probability")
	fs.IntVar(&config.WinScoreBonus, "b", config.WinScoreBonus, "score bonus per win")
	fs.IntVar(&config.TurnsPerPurchase, "p", config.TurnsPerPurchase, "turns per purchase")
	fs.IntVar(&config.InitialTurns, "i", config.InitialTurns, "turns for new users")
	fs.IntVar(&config.LeaderboardSize, "n", config.LeaderboardSize, "leaderboard size")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
		}
	})
}
