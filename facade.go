package connect

import (
	"fmt"

	connectcommand "github.com/goliatone/go-connect/command"
	connectquery "github.com/goliatone/go-connect/query"
)

// CommandQueryService is the provider surface the facade dispatches to. Any
// Provider instance satisfies it regardless of its service operations type.
type CommandQueryService interface {
	connectcommand.MutatingService
	connectquery.ConnectionReader
}

type Commands struct {
	FetchRequestToken *connectcommand.FetchRequestTokenCommand
	Connect           *connectcommand.ConnectCommand
	AddConnection     *connectcommand.AddConnectionCommand
	Disconnect        *connectcommand.DisconnectCommand
}

type Queries struct {
	IsConnected          *connectquery.IsConnectedQuery
	ListConnections      *connectquery.ListConnectionsQuery
	GetProviderAccountID *connectquery.GetProviderAccountIDQuery
}

// Facade bundles the command and query handlers for one provider so callers
// can register them with a dispatcher in one step.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("connect: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		FetchRequestToken: connectcommand.NewFetchRequestTokenCommand(service),
		Connect:           connectcommand.NewConnectCommand(service),
		AddConnection:     connectcommand.NewAddConnectionCommand(service),
		Disconnect:        connectcommand.NewDisconnectCommand(service),
	}
	facade.queries = Queries{
		IsConnected:          connectquery.NewIsConnectedQuery(service),
		ListConnections:      connectquery.NewListConnectionsQuery(service),
		GetProviderAccountID: connectquery.NewGetProviderAccountIDQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
