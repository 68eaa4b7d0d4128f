package sqlstore

import (
	"github.com/goliatone/go-connect/core"
)

func (r *accountConnectionRecord) toDomain(token core.OAuthToken) core.AccountConnection {
	if r == nil {
		return core.AccountConnection{}
	}
	return core.AccountConnection{
		ID:                r.ID,
		AccountID:         r.AccountID,
		ProviderName:      r.ProviderName,
		AccessToken:       token,
		ProviderAccountID: r.ProviderAccountID,
		ProfileURL:        r.ProfileURL,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}
