// Command token mints an admin API bearer token.
//
//	go run ./cmd/token -email boss@example.com
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cmlabs-hris/attendance-bot/internal/config"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/jwt"
	"github.com/joho/godotenv"
)

func main() {
	email := flag.String("email", "", "admin email the token is issued to")
	ttl := flag.String("ttl", "", "token lifetime, defaults to JWT_ACCESS_EXPIRATION_TIME")
	flag.Parse()

	_ = godotenv.Load()

	// Only the JWT settings matter here, so the full Validate is skipped.
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}
	if cfg.JWT.Secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET_KEY is required")
		os.Exit(1)
	}

	lifetime := cfg.JWT.AccessExpiration
	if *ttl != "" {
		lifetime = *ttl
	}

	tok, err := jwt.NewJWTService(cfg.JWT.Secret, lifetime).GenerateAccessToken(auth.IssueTokenRequest{Email: *email})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error issuing token:", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(tok)
}
