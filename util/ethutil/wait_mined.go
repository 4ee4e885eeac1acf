// Copyright 2024-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package ethutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
)

// ErrReceiptTimeout is returned when a receipt does not show up within the
// configured number of polls.
var ErrReceiptTimeout = errors.New("timed out waiting for receipt")

type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// WaitForReceipt polls for the receipt of txHash every pollInterval, giving up
// after maxAttempts polls. A maxAttempts of zero polls exactly once.
func WaitForReceipt(ctx context.Context, client ReceiptReader, txHash common.Hash, pollInterval time.Duration, maxAttempts int) (*types.Receipt, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	var lastErr error
	for attempt := 0; ; attempt++ {
		receipt, err := client.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			// indexing in progress and similar transient answers are logged but not fatal
			log.Trace("receipt not available yet", "tx", txHash, "attempt", attempt, "err", err)
			lastErr = err
		}
		if attempt >= maxAttempts {
			if lastErr != nil {
				return nil, fmt.Errorf("%w: tx %v after %d attempts (last error: %v)", ErrReceiptTimeout, txHash, attempt+1, lastErr)
			}
			return nil, fmt.Errorf("%w: tx %v after %d attempts", ErrReceiptTimeout, txHash, attempt+1)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ReceiptSucceeded reports whether a receipt carries a successful status.
func ReceiptSucceeded(receipt *types.Receipt) bool {
	return receipt != nil && receipt.Status == types.ReceiptStatusSuccessful
}
