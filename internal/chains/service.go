package chains

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

var ErrNoRPC = errors.New("no rpc configured")

// ChainService dials and caches one client per network id.
type ChainService struct {
	cfg ChainConfig

	mu               sync.Mutex
	clientsByNetwork map[string]*BlockchainClientWithCache
}

func NewChainService(cfg ChainConfig) (*ChainService, error) {
	if len(cfg.Networks) == 0 {
		return nil, errors.New("chains config has no networks")
	}
	return &ChainService{
		cfg:              cfg,
		clientsByNetwork: make(map[string]*BlockchainClientWithCache),
	}, nil
}

// ClientForNetwork returns (and caches) the client for networkID.
// ctx bounds the dial and also the lifetime of the background header refresh.
func (s *ChainService) ClientForNetwork(ctx context.Context, networkID string) (*BlockchainClientWithCache, error) {
	key := strings.ToLower(strings.TrimSpace(networkID))
	if key == "" {
		return nil, errors.New("network id is empty")
	}

	s.mu.Lock()
	if existing := s.clientsByNetwork[key]; existing != nil {
		s.mu.Unlock()
		return existing, nil
	}
	s.mu.Unlock()

	rpc, err := s.ResolveRPC(key)
	if err != nil {
		return nil, err
	}

	// Dial outside the lock
	dialed, err := NewBlockchainClientWithCache(ctx, rpc.URL, s.cfg.DurationBetweenGetLatestHeaderRequestsMilliseconds)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s rpc %q", key, rpc.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.clientsByNetwork[key]; existing != nil {
		dialed.Close()
		return existing, nil
	}
	s.clientsByNetwork[key] = dialed
	return dialed, nil
}

// ResolveRPC picks the preferred RPC by name, otherwise the first one configured.
func (s *ChainService) ResolveRPC(networkID string) (RPC, error) {
	key := strings.ToLower(strings.TrimSpace(networkID))
	var network NetworkRPCs
	found := false
	for name, n := range s.cfg.Networks {
		if strings.EqualFold(strings.TrimSpace(name), key) {
			network, found = n, true
			break
		}
	}
	if !found || len(network.RPCs) == 0 {
		return RPC{}, errors.Wrapf(ErrNoRPC, "network %q", networkID)
	}

	if preferred := strings.TrimSpace(s.cfg.PreferredRPCName); preferred != "" {
		for _, rpc := range network.RPCs {
			if strings.EqualFold(strings.TrimSpace(rpc.Name), preferred) && strings.TrimSpace(rpc.URL) != "" {
				return rpc, nil
			}
		}
	}
	for _, rpc := range network.RPCs {
		if strings.TrimSpace(rpc.URL) != "" {
			return rpc, nil
		}
	}
	return RPC{}, errors.Wrapf(ErrNoRPC, "network %q has only empty urls", networkID)
}

// Close closes all cached clients (call on shutdown).
func (s *ChainService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, c := range s.clientsByNetwork {
		c.Close()
		delete(s.clientsByNetwork, key)
	}
}
