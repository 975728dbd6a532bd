package chains

import (
	"context"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/quantumauth-io/quantum-go-utils/qa_evm"
	"github.com/quantumauth-io/quantum-go-utils/retry"
)

var _ qa_evm.BlockchainClient = (*BlockchainClientWithCache)(nil)

// BlockchainClientWithCache is an ethclient whose latest header is refreshed in the background.
type BlockchainClientWithCache struct {
	latestHeader             atomic.Pointer[types.Header]
	timeReceivedLatestHeader atomic.Pointer[time.Time]
	*ethclient.Client
}

func NewBlockchainClientWithCache(ctx context.Context, url string,
	durationBetweenGetLatestHeaderRequestsMilliseconds int) (*BlockchainClientWithCache, error) {
	eclient, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to connect to blockchain at %s", url)
	}

	cc := &BlockchainClientWithCache{
		Client: eclient,
	}

	if err := cc.getLatestHeaderFromChain(ctx); err != nil {
		eclient.Close()
		return nil, err
	}

	if durationBetweenGetLatestHeaderRequestsMilliseconds > 0 {
		go maintainLatestHeaderFromChain(ctx, cc, durationBetweenGetLatestHeaderRequestsMilliseconds)
	}

	return cc, nil
}

func maintainLatestHeaderFromChain(ctx context.Context, cc *BlockchainClientWithCache,
	durationBetweenGetLatestHeaderRequestsMilliseconds int) {
	duration := time.Duration(durationBetweenGetLatestHeaderRequestsMilliseconds) * time.Millisecond
	cfg := retry.DefaultConfig()
	cfg.MaxDelayBeforeRetrying = duration
	cfg.InitialDelayBeforeRetrying = duration / 10

	timer := time.NewTimer(duration)
	defer timer.Stop()
	numCallsToChain := 0
	for {
		timer.Reset(duration)
		select {
		case <-ctx.Done():
			log.Info("header refresh exiting", "numCallsToChain", numCallsToChain)
			return
		case <-timer.C:
			_, _ = retry.Retry(ctx, cfg,
				func(ctx context.Context) ([]interface{}, error) {
					numCallsToChain++
					return nil, cc.getLatestHeaderFromChain(ctx)
				},
				nil, // always retry
				"get latest header from chain")
		}
	}
}

func (b *BlockchainClientWithCache) getLatestHeaderFromChain(ctx context.Context) error {
	header, err := b.Client.HeaderByNumber(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "Failed to get latest HeaderByNumber from chain")
	}
	end := time.Now().UTC()
	b.latestHeader.Store(header)
	b.timeReceivedLatestHeader.Store(&end)
	return nil
}

// HeaderByNumber serves the cached header for the latest block.
func (b *BlockchainClientWithCache) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if number == nil {
		if h := b.latestHeader.Load(); h != nil {
			return h, nil
		}
	}
	return b.Client.HeaderByNumber(ctx, number)
}

// LatestHeader reports the cached head and when it was fetched.
func (b *BlockchainClientWithCache) LatestHeader() (*types.Header, time.Time, bool) {
	h := b.latestHeader.Load()
	at := b.timeReceivedLatestHeader.Load()
	if h == nil || at == nil {
		return nil, time.Time{}, false
	}
	return h, *at, true
}
