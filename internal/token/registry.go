package token

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry is a thread-safe registry of known tokens.
type Registry struct {
	byKey    map[Key]Token
	bySymbol map[string][]Token // upper-case symbol -> tokens across chains
	mu       sync.RWMutex
}

// NewRegistry creates a new empty token registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey:    make(map[Key]Token),
		bySymbol: make(map[string][]Token),
	}
}

// Register adds a token to the registry.
// Panics if a token with the same identity is already registered.
func (r *Registry) Register(t Token) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := t.Key()
	if _, exists := r.byKey[key]; exists {
		panic(fmt.Sprintf("token: %s already registered", key))
	}

	r.byKey[key] = t
	sym := strings.ToUpper(t.Symbol())
	r.bySymbol[sym] = append(r.bySymbol[sym], t)
}

// Get retrieves a token by identity.
func (r *Registry) Get(b Blockchain, address string) (Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byKey[NewKey(b, address)]
	return t, ok
}

// GetBySymbol retrieves a token by symbol on a chain.
func (r *Registry) GetBySymbol(b Blockchain, symbol string) (Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.bySymbol[strings.ToUpper(symbol)] {
		if t.Blockchain() == b {
			return t, true
		}
	}
	return Token{}, false
}

// All returns all registered tokens ordered by key.
func (r *Registry) All() []Token {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Token, 0, len(r.byKey))
	for _, t := range r.byKey {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key().String() < result[j].Key().String()
	})
	return result
}

// Count returns the number of registered tokens.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}
