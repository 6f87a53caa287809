package storage

import "time"

// Option configures the storage engine
type Option func(*Engine)

// WithDataDir sets the directory used for persistence
func WithDataDir(dir string) Option {
	return func(engine *Engine) {
		engine.dataDir = dir
	}
}

// WithFilterCacheSize sets the capacity of the parsed-filter LRU cache
func WithFilterCacheSize(size int) Option {
	return func(engine *Engine) {
		if size > 0 {
			engine.filterCacheSize = size
		}
	}
}

// WithBackgroundSave enables periodic background saves at the given interval
// and disables per-transaction saves
func WithBackgroundSave(interval time.Duration) Option {
	return func(engine *Engine) {
		engine.backgroundSave = true
		engine.saveInterval = interval
		engine.transactionSave = false
	}
}

// WithTransactionSave enables saving after every write transaction (default: true)
func WithTransactionSave(enabled bool) Option {
	return func(engine *Engine) {
		engine.transactionSave = enabled
	}
}
