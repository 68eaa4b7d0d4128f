package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type accountConnectionRecord struct {
	bun.BaseModel `bun:"table:account_connections,alias:ac"`

	ID                string    `bun:"id,pk"`
	AccountID         string    `bun:"account_id,notnull"`
	ProviderName      string    `bun:"provider_name,notnull"`
	AccessTokenValue  []byte    `bun:"access_token_value,notnull"`
	AccessTokenSecret []byte    `bun:"access_token_secret,notnull"`
	ProviderAccountID string    `bun:"provider_account_id,notnull"`
	ProfileURL        string    `bun:"profile_url"`
	CreatedAt         time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
