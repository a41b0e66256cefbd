package liquidator

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/sapphire-tools/liquidator/internal/types"
)

// Chain is the on-chain surface the engine drives. *chain.Client implements
// it; tests substitute a fake.
type Chain interface {
	ChainID() *big.Int
	SignerAddress() common.Address

	BlockNumber(ctx context.Context) (uint64, error)
	CreationBlock(ctx context.Context, txHash common.Hash) (uint64, error)
	BorrowedLogs(ctx context.Context, core common.Address, fromBlock uint64) ([]ethtypes.Log, error)

	CoreRiskParameters(ctx context.Context, core common.Address) (high, low, index *big.Int, protocol string, err error)
	OraclePrice(ctx context.Context, oracle common.Address) (*big.Int, error)
	MaxScore(ctx context.Context, assessor common.Address) (*big.Int, error)
	Vault(ctx context.Context, core, account common.Address) (types.VaultState, error)

	SupportedBorrowAsset(ctx context.Context, core common.Address) (common.Address, error)
	TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error)
	TokenDecimals(ctx context.Context, token common.Address) (uint8, error)
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)

	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	Liquidate(ctx context.Context, liquidator, core common.Address, proof types.ScoreProof, gasPrice *big.Int, gasLimit uint64) (*ethtypes.Transaction, error)
	WaitMined(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
}

// ReportStore persists completed cycle records. May be nil when no database
// is configured.
type ReportStore interface {
	SaveCycleReport(report types.CycleReport) (int64, error)
}
