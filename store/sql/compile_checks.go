package sqlstore

import "github.com/goliatone/go-connect/core"

var (
	_ core.ConnectionRepository   = (*ConnectionRepository)(nil)
	_ core.TransactionRunner      = (*BunTransactionRunner)(nil)
	_ core.RepositoryProvider     = (*RepositoryFactory)(nil)
	_ core.RepositoryBuildFactory = (*RepositoryFactory)(nil)
)
