package main

import (
	"github.com/CreativeUnicorns/extprefs"
	"github.com/CreativeUnicorns/extprefs/cache"
	"github.com/CreativeUnicorns/extprefs/config"
	"github.com/CreativeUnicorns/extprefs/storage"
)

// openStorage returns the configured override storage, or nil for the none driver.
func openStorage(cfg config.StorageConfig) (extprefs.Storage, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return storage.NewMemoryStorage(), nil
	case config.DriverSQLite:
		s, err := storage.NewSQLiteStorage(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := storage.NewPostgresStorage(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, nil
}

// openCache returns the configured cache, or nil for the none driver.
func openCache(cfg config.CacheConfig) (extprefs.Cache, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return cache.NewMemoryCache(), nil
	case config.DriverRedis:
		c, err := cache.NewRedisCache(cache.RedisOptions{
			Addr:      cfg.Addr,
			Password:  cfg.Password,
			DB:        cfg.DB,
			KeyPrefix: cfg.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, nil
}

// newManager builds a Manager over the configured backends. The returned func
// closes them.
func (a *app) newManager() (*extprefs.Manager, func(), error) {
	reg, err := a.registry()
	if err != nil {
		return nil, nil, err
	}

	store, err := openStorage(a.cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	c, err := openCache(a.cfg.Cache)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, nil, err
	}

	opts := []extprefs.Option{
		extprefs.WithRegistry(reg),
		extprefs.WithLogger(a.logger),
		extprefs.WithCacheTTL(a.cfg.Cache.TTL),
	}
	if store != nil {
		opts = append(opts, extprefs.WithStorage(store))
	}
	if c != nil {
		opts = append(opts, extprefs.WithCache(c))
	}

	closeAll := func() {
		if c != nil {
			if err := c.Close(); err != nil {
				a.logger.Error("Failed to close cache", "error", err)
			}
		}
		if store != nil {
			if err := store.Close(); err != nil {
				a.logger.Error("Failed to close storage", "error", err)
			}
		}
	}
	return extprefs.New(opts...), closeAll, nil
}
