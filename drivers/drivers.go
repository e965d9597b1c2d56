// Package drivers opens the backend selected by the configuration.
package drivers

import (
	"github.com/pkg/errors"

	"github.com/burugo/modelkit/config"
	"github.com/burugo/modelkit/drivers/cache"
	"github.com/burugo/modelkit/drivers/memory"
	"github.com/burugo/modelkit/drivers/redis"
	"github.com/burugo/modelkit/drivers/sqlite"
	"github.com/burugo/modelkit/internal/interfaces"
	"github.com/burugo/modelkit/logger"
	"github.com/burugo/modelkit/metrics"
)

// Factory creates the backend of one collection.
type Factory func(collection string) (interfaces.Backend, error)

// Store is an opened backend: a factory for collections plus the connection behind them.
type Store struct {
	Factory Factory
	close   func() error
}

// Close releases the connection, if any.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects to the backend conf names. Traces go to log and cache lookups to
// observer; both may be nil.
func Open(conf *config.Config, log logger.Interface, observer metrics.CacheObserver) (*Store, error) {
	if log == nil {
		log = logger.Discard
	}

	var store *Store
	switch conf.Backend {
	case config.BackendMemory:
		store = &Store{Factory: func(string) (interfaces.Backend, error) { return memory.New(), nil }}
	case config.BackendSQLite:
		db, err := sqlite.Open(conf.SQLite.DSN, log)
		if err != nil {
			return nil, err
		}
		store = &Store{Factory: db.Factory(), close: db.Close}
	case config.BackendRedis:
		c, err := redis.NewClient(nil, &redis.Options{
			Addr:      conf.Redis.Addr,
			Password:  conf.Redis.Password,
			DB:        conf.Redis.DB,
			KeyPrefix: conf.Redis.KeyPrefix,
			Logger:    log,
		})
		if err != nil {
			return nil, err
		}
		store = &Store{Factory: c.Factory(), close: c.Close}
	default:
		return nil, errors.Errorf("modelkit: unknown backend %q", conf.Backend)
	}

	if conf.Cache.Enabled {
		store.Factory = cache.Wrap(store.Factory, cache.Options{
			Size:     conf.Cache.Size,
			TTL:      conf.Cache.TTL,
			Observer: observer,
		})
	}
	return store, nil
}
