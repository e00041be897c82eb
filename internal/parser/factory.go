package parser

import (
	"fmt"
	"sync"

	"podrecon/internal/config"
	"podrecon/internal/port"
)

// ProviderFactory creates an ExtractionBackend from a provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.ExtractionBackend, error)

// registry of provider factories, populated by init() in each provider package
// or explicitly via RegisterProvider.
var (
	providersMu sync.RWMutex
	providers   = map[string]ProviderFactory{}
)

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[name] = factory
}

// NewBackend creates an ExtractionBackend using the registered factory.
func NewBackend(cfg *config.ProviderConfig) (port.ExtractionBackend, error) {
	providersMu.RLock()
	factory, ok := providers[cfg.Provider]
	providersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown extraction provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
