package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/auth"
)

// TokenCmd signs a short-lived JWT for a user id using a local ECDSA
// private key. Development aid; production tokens come from the identity
// provider.
type TokenCmd struct {
	SigningKey string        `help:"path to PEM-encoded ECDSA private key" required:"" env:"GRAPHGATE_JWT_SIGNING_KEY"`
	UserID     string        `help:"user id to place in the subject claim" required:""`
	TTL        time.Duration `help:"token lifetime" default:"1h"`
}

func (c *TokenCmd) Run(globals *Globals) error {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	signingKeyPEM, err := os.ReadFile(c.SigningKey)
	if err != nil {
		return fmt.Errorf("failed to read signing key: %w", err)
	}

	token, err := auth.IssueToken(string(signingKeyPEM), userID, c.TTL)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	fmt.Println(token)

	return nil
}
