// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package mining

// Methods names the JSON-RPC calls a node flavor uses to control block
// production.
type Methods struct {
	Stop      string
	StopArgs  []interface{}
	Start     string
	StartArgs []interface{}
	Mine      string
}

var GanacheMethods = Methods{
	Stop:  "miner_stop",
	Start: "miner_start",
	Mine:  "evm_mine",
}

var AnvilMethods = Methods{
	Stop:      "evm_setAutomine",
	StopArgs:  []interface{}{false},
	Start:     "evm_setAutomine",
	StartArgs: []interface{}{true},
	Mine:      "evm_mine",
}
