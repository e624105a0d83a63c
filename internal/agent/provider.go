package agent

import (
	"sync"

	"go.uber.org/zap"
)

// Client construction is assumed expensive relative to a single analysis, so
// clients are built lazily and reused: one instance per distinct Config,
// behind this accessor. There is no ambient default beyond that.
var (
	mu      sync.Mutex
	clients = make(map[Config]*GeminiClient)
)

// Acquire returns the shared client for cfg, constructing it on first use.
// Configs that resolve to the same effective settings share one client.
func Acquire(cfg Config, logger *zap.Logger) (*GeminiClient, error) {
	key := cfg.withDefaults()

	mu.Lock()
	defer mu.Unlock()

	if c, ok := clients[key]; ok {
		return c, nil
	}

	c, err := NewGeminiClient(key, logger)
	if err != nil {
		return nil, err
	}
	clients[key] = c
	return c, nil
}
