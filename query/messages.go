package query

const (
	TypeIsConnected          = "connect.query.connection.is_connected"
	TypeListConnections      = "connect.query.connection.list"
	TypeGetProviderAccountID = "connect.query.provider_account_id.get"
)

// The connection queries act on the account resolved from the calling
// context, so the messages themselves carry no routing fields.

type IsConnectedMessage struct{}

func (IsConnectedMessage) Type() string { return TypeIsConnected }

func (IsConnectedMessage) Validate() error { return nil }

type ListConnectionsMessage struct{}

func (ListConnectionsMessage) Type() string { return TypeListConnections }

func (ListConnectionsMessage) Validate() error { return nil }

type GetProviderAccountIDMessage struct{}

func (GetProviderAccountIDMessage) Type() string { return TypeGetProviderAccountID }

func (GetProviderAccountIDMessage) Validate() error { return nil }
