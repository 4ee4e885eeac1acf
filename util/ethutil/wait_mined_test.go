// Copyright 2024-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package ethutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

type countingReader struct {
	calls     int
	readyAt   int
	receipt   *types.Receipt
	otherErrs bool
}

func (r *countingReader) TransactionReceipt(_ context.Context, _ common.Hash) (*types.Receipt, error) {
	r.calls++
	if r.readyAt > 0 && r.calls >= r.readyAt {
		return r.receipt, nil
	}
	if r.otherErrs {
		return nil, errors.New("transaction indexing is in progress")
	}
	return nil, ethereum.NotFound
}

func TestWaitForReceiptReturnsOnceMined(t *testing.T) {
	want := &types.Receipt{Status: types.ReceiptStatusSuccessful}
	reader := &countingReader{readyAt: 3, receipt: want}
	got, err := WaitForReceipt(context.Background(), reader, common.Hash{1}, time.Millisecond, 10)
	require.NoError(t, err)
	require.Same(t, want, got)
	require.Equal(t, 3, reader.calls)
	require.True(t, ReceiptSucceeded(got))
}

func TestWaitForReceiptIsBounded(t *testing.T) {
	reader := &countingReader{otherErrs: true}
	_, err := WaitForReceipt(context.Background(), reader, common.Hash{2}, time.Millisecond, 4)
	require.ErrorIs(t, err, ErrReceiptTimeout)
	require.Equal(t, 5, reader.calls)
}

func TestWaitForReceiptHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reader := &countingReader{}
	_, err := WaitForReceipt(ctx, reader, common.Hash{3}, time.Hour, 100)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReceiptSucceeded(t *testing.T) {
	require.False(t, ReceiptSucceeded(nil))
	require.False(t, ReceiptSucceeded(&types.Receipt{Status: types.ReceiptStatusFailed}))
}
