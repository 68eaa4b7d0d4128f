package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-connect/core"
)

type RepositoryFactory struct {
	db      *bun.DB
	secrets core.SecretProvider

	connectionRepository *ConnectionRepository
	txRunner             *BunTransactionRunner
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

// NewRepositoryFactoryWithSecrets seals stored token material with the given
// provider instead of persisting it in the clear.
func NewRepositoryFactoryWithSecrets(secrets core.SecretProvider) *RepositoryFactory {
	return &RepositoryFactory{secrets: secrets}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildRepository(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildRepository(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildRepository(persistenceClient any) (core.RepositoryProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.connectionRepository != nil {
		return f, nil
	}
	if err := f.initRepositories(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) ConnectionRepository() core.ConnectionRepository {
	if f == nil || f.connectionRepository == nil {
		return nil
	}
	return f.connectionRepository
}

func (f *RepositoryFactory) TransactionRunner() core.TransactionRunner {
	if f == nil || f.txRunner == nil {
		return nil
	}
	return f.txRunner
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initRepositories() error {
	connectionRepo := repository.NewRepository[*accountConnectionRecord](f.db, accountConnectionHandlers())
	if validator, ok := connectionRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid account connection repository wiring: %w", err)
		}
	}

	f.connectionRepository = &ConnectionRepository{
		db:      f.db,
		repo:    connectionRepo,
		secrets: f.secrets,
	}
	f.txRunner = NewBunTransactionRunner(f.db)
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
