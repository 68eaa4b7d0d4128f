package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-connect/core"
)

var (
	_ gocmd.Querier[IsConnectedMessage, bool]                         = (*IsConnectedQuery)(nil)
	_ gocmd.Querier[ListConnectionsMessage, []core.AccountConnection] = (*ListConnectionsQuery)(nil)
	_ gocmd.Querier[GetProviderAccountIDMessage, ProviderAccountRef]  = (*GetProviderAccountIDQuery)(nil)
)
