package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/nerrad567/gray-logic-capture/internal/auth"
	"github.com/nerrad567/gray-logic-capture/internal/infrastructure/config"
)

// runToken mints an access token for the HTTP API using the configured
// JWT secret and lifetime. There is no user store: operators hand the
// printed token to whatever client needs it.
//
// Parameters:
//   - args: Command-line arguments after "token"
//   - out: Where the token is written
//   - errOut: Where flag usage and parse errors are written
//
// Returns:
//   - error: If flags, config, or the role are invalid
func runToken(args []string, out, errOut io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(errOut)
	subject := fs.String("subject", "", "token subject (who the token is for)")
	role := fs.String("role", string(auth.RoleOperator), "role: viewer, operator or admin")
	ttl := fs.Duration("ttl", 0, "token lifetime (default security.jwt.access_token_ttl)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Security.JWT.Secret == "" {
		return fmt.Errorf("security.jwt.secret is not set")
	}

	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = cfg.GetAccessTokenTTL()
	}

	token, err := auth.GenerateAccessToken(*subject, auth.Role(*role), cfg.Security.JWT.Secret, lifetime)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	_, err = fmt.Fprintln(out, token)
	return err
}
