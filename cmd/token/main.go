// Command token mints a bearer token for the walkplan owner.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/walkplan/walkplan/internal/auth"
	"github.com/walkplan/walkplan/internal/config"
)

func main() {
	expiry := flag.Duration("expiry", auth.DefaultAccessTokenExpiry, "token lifetime")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.JWTSigningKey == "" {
		cfg.JWTSigningKey = config.DevJWTSigningKey
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	tokens, err := auth.NewJWTService(auth.JWTConfig{
		SigningKey: cfg.JWTSigningKey,
		OwnerID:    cfg.OwnerID,
		Expiry:     *expiry,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token service")
	}

	token, expiresAt, err := tokens.GenerateAccessToken()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to mint token")
	}

	log.Info().
		Str("owner_id", cfg.OwnerID).
		Str("expires_at", expiresAt.Format(time.RFC3339)).
		Msg("token minted")
	fmt.Println(token)
}
