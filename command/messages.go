package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-connect/core"
)

const (
	TypeFetchRequestToken = "connect.command.request_token.fetch"
	TypeConnect           = "connect.command.connect"
	TypeAddConnection     = "connect.command.add_connection"
	TypeDisconnect        = "connect.command.disconnect"
)

// FetchRequestTokenMessage starts the authorization dance. The callback URL
// may be empty for out-of-band providers.
type FetchRequestTokenMessage struct {
	CallbackURL string
}

func (FetchRequestTokenMessage) Type() string { return TypeFetchRequestToken }

func (FetchRequestTokenMessage) Validate() error { return nil }

type ConnectMessage struct {
	Authorized core.AuthorizedRequestToken
}

func (ConnectMessage) Type() string { return TypeConnect }

func (m ConnectMessage) Validate() error {
	if err := m.Authorized.Validate(); err != nil {
		return fmt.Errorf("command: %w", err)
	}
	return nil
}

type AddConnectionMessage struct {
	AccessToken       core.OAuthToken
	ProviderAccountID string
}

func (AddConnectionMessage) Type() string { return TypeAddConnection }

func (m AddConnectionMessage) Validate() error {
	if m.AccessToken.IsZero() {
		return fmt.Errorf("command: access token is required")
	}
	if strings.TrimSpace(m.ProviderAccountID) == "" {
		return fmt.Errorf("command: provider account id is required")
	}
	return nil
}

type DisconnectMessage struct{}

func (DisconnectMessage) Type() string { return TypeDisconnect }

func (DisconnectMessage) Validate() error { return nil }
