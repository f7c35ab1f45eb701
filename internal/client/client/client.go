package client

import (
	"context"

	"github.com/dmitrijs2005/duet/internal/client/session"
	"github.com/dmitrijs2005/duet/internal/gateway"
)

// Client is the remote gateway plus the account calls the REPL needs.
type Client interface {
	gateway.Gateway
	Close() error
	Login(ctx context.Context, name, pin string) (session.Session, error)
	// Logout forgets the access token.
	Logout()
	ChangePin(ctx context.Context, oldPin, newPin, confirmPin string) error
	Ping(ctx context.Context) error
}
