// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package mining

import (
	"context"
	"errors"
	"sync"
)

// ManualMining switches the node to manual mining and returns the function
// that switches it back. Calling release more than once is harmless.
func (c *Client) ManualMining(ctx context.Context) (func(context.Context) error, error) {
	if err := c.DisableAutomine(ctx); err != nil {
		return nil, err
	}
	var once sync.Once
	var releaseErr error
	release := func(ctx context.Context) error {
		once.Do(func() {
			releaseErr = c.EnableAutomine(ctx)
		})
		return releaseErr
	}
	return release, nil
}

// WithManualMining runs fn with automining disabled and restores it even when
// fn panics.
func (c *Client) WithManualMining(ctx context.Context, fn func() error) (err error) {
	release, err := c.ManualMining(ctx)
	if err != nil {
		return err
	}
	defer func() {
		// restore on a fresh context so a cancelled ctx cannot strand the node
		if releaseErr := release(context.WithoutCancel(ctx)); releaseErr != nil {
			err = errors.Join(err, releaseErr)
		}
	}()
	return fn()
}
