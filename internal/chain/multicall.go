package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// MulticallAddress is the canonical multicall aggregator, deployed at the same
// address on every supported network.
var MulticallAddress = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

// Call is one read-only contract call destined for an aggregate batch.
type Call struct {
	Target common.Address
	Method string
	ABI    abi.ABI
	Args   []any
}

// aggregateCall mirrors the multicall contract's (address,bytes) tuple.
type aggregateCall struct {
	Target   common.Address
	CallData []byte
}

// Aggregate batches several read-only calls into one round-trip through the
// multicall contract, so the values are consistent within a single block.
// Results come back in call order, still ABI-encoded.
func (c *Client) Aggregate(ctx context.Context, calls []Call) ([][]byte, error) {
	packed := make([]aggregateCall, len(calls))
	for i, call := range calls {
		data, err := call.ABI.Pack(call.Method, call.Args...)
		if err != nil {
			return nil, fmt.Errorf("failed to pack %s for aggregation: %w", call.Method, err)
		}
		packed[i] = aggregateCall{Target: call.Target, CallData: data}
	}

	input, err := multicallABI.Pack("aggregate", packed)
	if err != nil {
		return nil, fmt.Errorf("failed to pack aggregate call: %w", err)
	}

	raw, err := c.rpc.CallContract(ctx, ethereum.CallMsg{To: &MulticallAddress, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("aggregate call failed: %w", err)
	}

	out, err := multicallABI.Unpack("aggregate", raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack aggregate result: %w", err)
	}
	returnData, ok := out[1].([][]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected aggregate return type %T", out[1])
	}
	if len(returnData) != len(calls) {
		return nil, fmt.Errorf("aggregate returned %d results for %d calls", len(returnData), len(calls))
	}
	return returnData, nil
}

// unpackBigInt decodes a single uint256 return value.
func unpackBigInt(contractABI abi.ABI, method string, data []byte) (*big.Int, error) {
	out, err := contractABI.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s return type %T", method, out[0])
	}
	return v, nil
}
