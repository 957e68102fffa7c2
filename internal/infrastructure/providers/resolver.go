package providers

import (
	"sync"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
)

// RouteResolver maps provider settlement addresses to their remote API
// base URLs. Routes come from service config; adapters are built lazily
// and cached so every resolve of the same address shares one HTTP client.
type RouteResolver struct {
	mu       sync.Mutex
	routes   map[string]string
	adapters map[string]*HTTPSwapProvider
}

func NewRouteResolver(routes map[string]string) *RouteResolver {
	return &RouteResolver{
		routes:   routes,
		adapters: make(map[string]*HTTPSwapProvider),
	}
}

func (r *RouteResolver) Resolve(address string) (domain.SwapProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if adapter, ok := r.adapters[address]; ok {
		return adapter, nil
	}

	baseURL, ok := r.routes[address]
	if !ok {
		return nil, domain.Errorf(domain.KindProvider, "no route configured for provider address %s", address)
	}

	adapter := NewHTTPSwapProvider(address, baseURL)
	r.adapters[address] = adapter
	return adapter, nil
}
