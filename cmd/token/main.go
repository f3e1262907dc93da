// Package main mints a bearer token for a user ID. It is a development aid
// for calling the API; production tokens come from the identity provider
// that shares the signing secret.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/content-repurposer/internal/config"
	"github.com/phrazzld/content-repurposer/internal/service/auth"
)

func main() {
	userFlag := flag.String("user", "", "user UUID to put in the token subject (random if empty)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	userID := uuid.New()
	if *userFlag != "" {
		parsed, err := uuid.Parse(*userFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -user: %v\n", err)
			os.Exit(2)
		}
		userID = parsed
	}

	svc, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:     os.Getenv(config.EnvPrefix + "_AUTH_JWT_SECRET"),
		TokenLifetime: *ttl,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v (set %s_AUTH_JWT_SECRET)\n", err, config.EnvPrefix)
		os.Exit(1)
	}

	token, err := svc.GenerateToken(context.Background(), userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("User:  %s\nToken: %s\n", userID, token)
}
