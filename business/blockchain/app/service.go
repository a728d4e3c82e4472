package app

import (
	"context"
	"slices"
	"sync"

	"github.com/fd1az/swap-aggregator/internal/apperror"
	"github.com/fd1az/swap-aggregator/internal/token"
)

// BlockchainService is the per-chain adapter registry. It also serves token
// metadata to the token factory.
type BlockchainService struct {
	mu      sync.RWMutex
	public  map[token.Blockchain]PublicAdapter
	private map[token.Blockchain]PrivateAdapter
	closers []func()
}

var _ token.MetadataFetcher = (*BlockchainService)(nil)

// NewBlockchainService creates an empty registry.
func NewBlockchainService() *BlockchainService {
	return &BlockchainService{
		public:  make(map[token.Blockchain]PublicAdapter),
		private: make(map[token.Blockchain]PrivateAdapter),
	}
}

// RegisterPublic adds a read adapter. closer may be nil.
func (s *BlockchainService) RegisterPublic(b token.Blockchain, a PublicAdapter, closer func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.public[b] = a
	if closer != nil {
		s.closers = append(s.closers, closer)
	}
}

// RegisterPrivate adds a signing adapter.
func (s *BlockchainService) RegisterPrivate(b token.Blockchain, a PrivateAdapter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.private[b] = a
}

// Public returns the read adapter for b.
func (s *BlockchainService) Public(b token.Blockchain) (PublicAdapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.public[b]
	if !ok {
		return nil, apperror.NotSupportedBlockchain(string(b))
	}
	return a, nil
}

// Private returns the signing adapter for b.
func (s *BlockchainService) Private(b token.Blockchain) (PrivateAdapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.private[b]
	if !ok {
		return nil, apperror.NotSupportedBlockchain(string(b))
	}
	return a, nil
}

// HasPublic reports whether b has a read adapter.
func (s *BlockchainService) HasPublic(b token.Blockchain) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.public[b]
	return ok
}

// Blockchains lists chains with a read adapter, sorted.
func (s *BlockchainService) Blockchains() []token.Blockchain {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]token.Blockchain, 0, len(s.public))
	for b := range s.public {
		out = append(out, b)
	}
	slices.Sort(out)
	return out
}

// TokenMetadata implements token.MetadataFetcher.
func (s *BlockchainService) TokenMetadata(ctx context.Context, b token.Blockchain, address string) (token.Metadata, error) {
	a, err := s.Public(b)
	if err != nil {
		return token.Metadata{}, err
	}
	return a.TokenMetadata(ctx, address)
}

// Close releases every registered client.
func (s *BlockchainService) Close() error {
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()
	for _, c := range closers {
		c()
	}
	return nil
}
