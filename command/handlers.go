package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-connect/core"
)

// MutatingService is the provider surface the command handlers dispatch to.
// Provider instances satisfy it regardless of their service operations type.
type MutatingService interface {
	FetchNewRequestToken(ctx context.Context, callbackURL string) (core.OAuthToken, error)
	Connect(ctx context.Context, authorized core.AuthorizedRequestToken) (core.AccountConnection, error)
	AddConnection(ctx context.Context, accessToken core.OAuthToken, providerAccountID string) (core.AccountConnection, error)
	Disconnect(ctx context.Context) error
}

type FetchRequestTokenCommand struct {
	service MutatingService
}

func NewFetchRequestTokenCommand(service MutatingService) *FetchRequestTokenCommand {
	return &FetchRequestTokenCommand{service: service}
}

func (c *FetchRequestTokenCommand) Execute(ctx context.Context, msg FetchRequestTokenMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: request token service is required")
	}
	out, err := c.service.FetchNewRequestToken(ctx, msg.CallbackURL)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ConnectCommand struct {
	service MutatingService
}

func NewConnectCommand(service MutatingService) *ConnectCommand {
	return &ConnectCommand{service: service}
}

func (c *ConnectCommand) Execute(ctx context.Context, msg ConnectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: connect service is required")
	}
	out, err := c.service.Connect(ctx, msg.Authorized)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type AddConnectionCommand struct {
	service MutatingService
}

func NewAddConnectionCommand(service MutatingService) *AddConnectionCommand {
	return &AddConnectionCommand{service: service}
}

func (c *AddConnectionCommand) Execute(ctx context.Context, msg AddConnectionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: add connection service is required")
	}
	out, err := c.service.AddConnection(ctx, msg.AccessToken, msg.ProviderAccountID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DisconnectCommand struct {
	service MutatingService
}

func NewDisconnectCommand(service MutatingService) *DisconnectCommand {
	return &DisconnectCommand{service: service}
}

func (c *DisconnectCommand) Execute(ctx context.Context, _ DisconnectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: disconnect service is required")
	}
	return c.service.Disconnect(ctx)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
