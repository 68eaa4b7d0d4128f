package connect

import "github.com/goliatone/go-connect/core"

// Provider instances plug into the facade regardless of their service
// operations type.
var _ CommandQueryService = (*core.Provider[struct{}])(nil)
