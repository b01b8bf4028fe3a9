package command

import (
	"context"
	"fmt"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/storage"
)

type StorageConfig struct {
	Mobs      AssetConfig[*game.MobTemplate]    `json:"mobs"`
	Classes   AssetConfig[*game.CharacterClass] `json:"classes"`
	Postgres  PostgresConfig                    `json:"postgres"`
	QueueSize int                               `json:"queue_size"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()
	el.Add(c.Mobs.Validate("mobs"))
	el.Add(c.Classes.Validate("classes"))
	el.Add(c.Postgres.validate())
	if c.QueueSize < 0 {
		el.Add(fmt.Errorf("queue_size must not be negative"))
	}
	return el.Err()
}

// BuildCatalog loads the mob and class assets.
func (c *StorageConfig) BuildCatalog(defaultMob string) (*game.Catalog, error) {
	mobs, err := c.Mobs.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating mob store: %w", err)
	}
	classes, err := c.Classes.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating class store: %w", err)
	}

	return game.NewCatalog(mobs, classes, defaultMob)
}

func (c *StorageConfig) buildJobQueue() *storage.JobQueue {
	var opts []storage.JobQueueOpt
	if c.QueueSize > 0 {
		opts = append(opts, storage.WithQueueSize(c.QueueSize))
	}
	return storage.NewJobQueue(opts...)
}

type PostgresConfig struct {
	DSN     string `json:"dsn"`
	Migrate bool   `json:"migrate"`
}

func (c *PostgresConfig) validate() error {
	if c.DSN == "" && os.Getenv("DATABASE_URL") == "" {
		return fmt.Errorf("postgres.dsn is required")
	}
	return nil
}

func (c *PostgresConfig) dsn() string {
	if c.DSN != "" {
		return c.DSN
	}
	return os.Getenv("DATABASE_URL")
}

func (c *PostgresConfig) buildStore(ctx context.Context) (*storage.PostgresStore, error) {
	store, err := storage.OpenPostgres(ctx, c.dsn())
	if err != nil {
		return nil, err
	}
	if c.Migrate {
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return store, nil
}

type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

func (c *AssetConfig[T]) Validate(name string) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) BuildFileStore() (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path)
}
