package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[FetchRequestTokenMessage] = (*FetchRequestTokenCommand)(nil)
	_ gocmd.Commander[ConnectMessage]           = (*ConnectCommand)(nil)
	_ gocmd.Commander[AddConnectionMessage]     = (*AddConnectionCommand)(nil)
	_ gocmd.Commander[DisconnectMessage]        = (*DisconnectCommand)(nil)
)
