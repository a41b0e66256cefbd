package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/sapphire-tools/liquidator/internal/logger"
	"github.com/sapphire-tools/liquidator/internal/types"
)

// Error definitions for chain access failures.
var (
	ErrNoBorrowAssets  = errors.New("core has no supported borrow assets")
	ErrReceiptNotFound = errors.New("transaction receipt not found")
	ErrNoSigner        = errors.New("client has no signer configured")
)

// receiptPollInterval is how often a confirmation wait re-checks for a receipt.
const receiptPollInterval = 2 * time.Second

// RPC is the subset of the go-ethereum client the liquidator depends on.
// *ethclient.Client satisfies it.
type RPC interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
}

// Client exposes the protocol's on-chain surface as typed calls over a raw
// JSON-RPC connection.
type Client struct {
	rpc     RPC
	signer  *Signer
	chainID *big.Int
	log     zerolog.Logger
}

// NewClient wraps an RPC connection. The signer may be nil for read-only use.
func NewClient(ctx context.Context, rpc RPC, signer *Signer) (*Client, error) {
	chainID, err := rpc.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}
	return &Client{
		rpc:     rpc,
		signer:  signer,
		chainID: chainID,
		log:     logger.GetForComponent("chain_client"),
	}, nil
}

// ChainID returns the connected chain's id, read once at construction.
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// SignerAddress returns the liquidator signer's address.
func (c *Client) SignerAddress() common.Address {
	if c.signer == nil {
		return common.Address{}
	}
	return c.signer.Address()
}

// BlockNumber returns the current chain height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.rpc.BlockNumber(ctx)
}

// CreationBlock resolves the block height of a deployment transaction.
func (c *Client) CreationBlock(ctx context.Context, txHash common.Hash) (uint64, error) {
	receipt, err := c.rpc.TransactionReceipt(ctx, txHash)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch creation receipt %s: %w", txHash, err)
	}
	if receipt == nil || receipt.BlockNumber == nil {
		return 0, fmt.Errorf("%w: %s", ErrReceiptNotFound, txHash)
	}
	return receipt.BlockNumber.Uint64(), nil
}

// BorrowedLogs returns the raw Borrowed event logs emitted by a core contract
// from the given block to the chain head.
func (c *Client) BorrowedLogs(ctx context.Context, core common.Address, fromBlock uint64) ([]ethtypes.Log, error) {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{core},
		Topics:    [][]common.Hash{{BorrowedTopic}},
		FromBlock: new(big.Int).SetUint64(fromBlock),
	}
	logs, err := c.rpc.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query borrow logs on %s: %w", core, err)
	}
	return logs, nil
}

// CoreRiskParameters reads the core's four risk parameters in one aggregated
// round-trip: both collateral ratio bounds, the borrow index, and the score
// proof protocol identifier.
func (c *Client) CoreRiskParameters(ctx context.Context, core common.Address) (high, low, index *big.Int, protocol string, err error) {
	calls := []Call{
		{Target: core, Method: "highCollateralRatio", ABI: coreABI},
		{Target: core, Method: "lowCollateralRatio", ABI: coreABI},
		{Target: core, Method: "currentBorrowIndex", ABI: coreABI},
		{Target: core, Method: "getProofProtocol", ABI: coreABI, Args: []any{uint8(0)}},
	}
	results, err := c.Aggregate(ctx, calls)
	if err != nil {
		return nil, nil, nil, "", err
	}

	high, err = unpackBigInt(coreABI, "highCollateralRatio", results[0])
	if err != nil {
		return nil, nil, nil, "", err
	}
	low, err = unpackBigInt(coreABI, "lowCollateralRatio", results[1])
	if err != nil {
		return nil, nil, nil, "", err
	}
	index, err = unpackBigInt(coreABI, "currentBorrowIndex", results[2])
	if err != nil {
		return nil, nil, nil, "", err
	}

	protoVals, err := coreABI.Unpack("getProofProtocol", results[3])
	if err != nil {
		return nil, nil, nil, "", fmt.Errorf("failed to unpack getProofProtocol: %w", err)
	}
	protocol, _ = protoVals[0].(string)
	return high, low, index, protocol, nil
}

// OraclePrice reads the collateral price from the core's oracle.
func (c *Client) OraclePrice(ctx context.Context, oracle common.Address) (*big.Int, error) {
	out, err := c.callView(ctx, oracle, oracleABI, "fetchCurrentPrice")
	if err != nil {
		return nil, err
	}
	price, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected oracle price type %T", out[0])
	}
	return price, nil
}

// MaxScore reads the upper bound of the score range from the assessor.
func (c *Client) MaxScore(ctx context.Context, assessor common.Address) (*big.Int, error) {
	out, err := c.callView(ctx, assessor, assessorABI, "maxScore")
	if err != nil {
		return nil, err
	}
	max, ok := out[0].(uint16)
	if !ok {
		return nil, fmt.Errorf("unexpected max score type %T", out[0])
	}
	return big.NewInt(int64(max)), nil
}

// Vault reads one borrower's current debt and collateral state.
func (c *Client) Vault(ctx context.Context, core common.Address, account common.Address) (types.VaultState, error) {
	out, err := c.callView(ctx, core, coreABI, "vaults", account)
	if err != nil {
		return types.VaultState{}, err
	}
	normalized, ok1 := out[0].(*big.Int)
	collateral, ok2 := out[1].(*big.Int)
	if !ok1 || !ok2 {
		return types.VaultState{}, fmt.Errorf("unexpected vault field types %T, %T", out[0], out[1])
	}
	return types.VaultState{
		NormalizedBorrowedAmount: normalized,
		CollateralAmount:         collateral,
	}, nil
}

// SupportedBorrowAsset returns the core's primary borrow asset.
func (c *Client) SupportedBorrowAsset(ctx context.Context, core common.Address) (common.Address, error) {
	out, err := c.callView(ctx, core, coreABI, "getSupportedBorrowAssets")
	if err != nil {
		return common.Address{}, err
	}
	assets, ok := out[0].([]common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected borrow assets type %T", out[0])
	}
	if len(assets) == 0 {
		return common.Address{}, ErrNoBorrowAssets
	}
	return assets[0], nil
}

// TokenBalance reads an ERC-20 balance.
func (c *Client) TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	out, err := c.callView(ctx, token, erc20ABI, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balance type %T", out[0])
	}
	return balance, nil
}

// TokenDecimals reads an ERC-20's decimals.
func (c *Client) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	out, err := c.callView(ctx, token, erc20ABI, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals type %T", out[0])
	}
	return decimals, nil
}

// NativeBalance reads an account's native currency balance at the chain head.
func (c *Client) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	return c.rpc.BalanceAt(ctx, account, nil)
}

// SuggestGasPrice returns the node's current gas price suggestion.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return c.rpc.SuggestGasPrice(ctx)
}

// Liquidate submits one liquidation call against the flash liquidator contract
// and returns the signed transaction without waiting for confirmation.
func (c *Client) Liquidate(ctx context.Context, liquidator, core common.Address, proof types.ScoreProof, gasPrice *big.Int, gasLimit uint64) (*ethtypes.Transaction, error) {
	if c.signer == nil {
		return nil, ErrNoSigner
	}

	data, err := liquidatorABI.Pack("liquidate", core, proof.Account, proof)
	if err != nil {
		return nil, fmt.Errorf("failed to pack liquidate call: %w", err)
	}

	tx, err := c.signer.SignSend(ctx, c.rpc, liquidator, data, gasPrice, gasLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to submit liquidation of %s: %w", proof.Account, err)
	}
	return tx, nil
}

// WaitMined blocks until the transaction is mined, polling for its receipt.
func (c *Client) WaitMined(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.rpc.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			c.log.Debug().Err(err).Str("tx", txHash.Hex()).Msg("Receipt poll failed, retrying")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// callView performs one read-only contract call and unpacks its outputs.
func (c *Client) callView(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	raw, err := c.rpc.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s failed: %w", method, to, err)
	}
	out, err := contractABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	return out, nil
}
