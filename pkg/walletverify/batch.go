package walletverify

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// BatchItem is one verification request in a batch.
type BatchItem struct {
	Wallet string `json:"wallet"`
	VerificationInput
}

// BatchResult is the outcome of one batch item. Exactly one of Result and
// Err is set.
type BatchResult struct {
	Index  int                 `json:"index"`
	Wallet string              `json:"wallet"`
	Result *VerificationResult `json:"result,omitempty"`
	Err    error               `json:"-"`
}

// BatchConfig configures batch verification.
type BatchConfig struct {
	// NumWorkers controls parallelization (0 = runtime.NumCPU())
	NumWorkers int

	// StopOnError cancels the remaining items after the first error
	StopOnError bool
}

// DefaultBatchConfig returns a sensible default configuration.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		NumWorkers:  0, // Auto-detect
		StopOnError: false,
	}
}

// VerifySource parses a batch from source with the client's parser and
// verifies it.
func (c *Client) VerifySource(ctx context.Context, source string) ([]BatchResult, error) {
	items, err := c.parser.ParseInputs(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse inputs: %w", err)
	}
	return c.VerifyBatch(ctx, items), nil
}

// VerifyBatch verifies items on a bounded worker pool. Results are returned
// in input order. Items not reached before ctx is cancelled carry ctx.Err().
func (c *Client) VerifyBatch(ctx context.Context, items []BatchItem) []BatchResult {
	results := make([]BatchResult, len(items))
	for i, item := range items {
		results[i] = BatchResult{Index: i, Wallet: item.Wallet}
	}
	if len(items) == 0 {
		return results
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	numWorkers := c.batch.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(items) {
		numWorkers = len(items)
	}

	var completed int64
	processed := make([]bool, len(items))
	workChan := make(chan int, numWorkers)

	// Generate work
	go func() {
		defer close(workChan)
		for i := range items {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case i, ok := <-workChan:
					if !ok || ctx.Err() != nil {
						return
					}
					item := items[i]
					result, err := c.VerifyByName(ctx, item.Wallet, item.VerificationInput)
					results[i].Result = result
					results[i].Err = err
					processed[i] = true
					atomic.AddInt64(&completed, 1)

					if err != nil && c.batch.StopOnError {
						cancel()
					}
				}
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt64(&completed); n < int64(len(items)) {
		c.logger.Sugar().Warnf("batch stopped after %d of %d items", n, len(items))
		for i := range results {
			if !processed[i] {
				results[i].Err = ctx.Err()
			}
		}
	}
	return results
}
