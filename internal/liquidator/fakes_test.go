package liquidator

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/sapphire-tools/liquidator/internal/types"
)

// fakeChain is a scriptable in-memory Chain implementation.
type fakeChain struct {
	mu sync.Mutex

	chainID       *big.Int
	signer        common.Address
	height        uint64
	creationBlock uint64

	logs    []ethtypes.Log
	logsErr error
	// scanFroms records the fromBlock of every BorrowedLogs call.
	scanFroms []uint64

	high, low, index *big.Int
	protocol         string
	paramsErr        error
	price            *big.Int
	maxScore         *big.Int

	vaults   map[common.Address]types.VaultState
	vaultErr error

	borrowAsset   common.Address
	decimals      uint8
	tokenBalances []*big.Int
	balanceCalls  int
	nativeBalance *big.Int

	gasPrice *big.Int
	// liquidated records accounts in submission order.
	liquidated    []common.Address
	liquidateErr  map[common.Address]error
	revertedTxs   map[common.Hash]bool
	revertAll     bool
	nextNonce     uint64
	submittedDest common.Address
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		chainID:       big.NewInt(137),
		signer:        common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		height:        1000,
		creationBlock: 100,
		high:          scaled(2),   // 2.0
		low:           scaled(1),   // 1.0
		index:         scaled(1),   // 1.0
		protocol:      "sapphire.credit",
		price:         scaled(1),
		maxScore:      big.NewInt(1000),
		vaults:        make(map[common.Address]types.VaultState),
		borrowAsset:   common.HexToAddress("0x00000000000000000000000000000000000000bb"),
		decimals:      18,
		nativeBalance: scaled(5),
		gasPrice:      big.NewInt(30_000_000_000),
		liquidateErr:  make(map[common.Address]error),
		revertedTxs:   make(map[common.Hash]bool),
	}
}

// scaled returns n * 1e18.
func scaled(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), types.Unit)
}

// borrowedLog fabricates a Borrowed event log for a borrower.
func borrowedLog(borrower common.Address, block uint64) ethtypes.Log {
	return ethtypes.Log{
		Topics:      []common.Hash{{0x01}, common.BytesToHash(borrower.Bytes())},
		BlockNumber: block,
	}
}

func (f *fakeChain) ChainID() *big.Int           { return new(big.Int).Set(f.chainID) }
func (f *fakeChain) SignerAddress() common.Address { return f.signer }

func (f *fakeChain) BlockNumber(ctx context.Context) (uint64, error) {
	return f.height, nil
}

func (f *fakeChain) CreationBlock(ctx context.Context, txHash common.Hash) (uint64, error) {
	return f.creationBlock, nil
}

func (f *fakeChain) BorrowedLogs(ctx context.Context, core common.Address, fromBlock uint64) ([]ethtypes.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanFroms = append(f.scanFroms, fromBlock)
	if f.logsErr != nil {
		return nil, f.logsErr
	}
	var out []ethtypes.Log
	for _, l := range f.logs {
		if l.BlockNumber >= fromBlock {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeChain) CoreRiskParameters(ctx context.Context, core common.Address) (*big.Int, *big.Int, *big.Int, string, error) {
	if f.paramsErr != nil {
		return nil, nil, nil, "", f.paramsErr
	}
	return f.high, f.low, f.index, f.protocol, nil
}

func (f *fakeChain) OraclePrice(ctx context.Context, oracle common.Address) (*big.Int, error) {
	return f.price, nil
}

func (f *fakeChain) MaxScore(ctx context.Context, assessor common.Address) (*big.Int, error) {
	return f.maxScore, nil
}

func (f *fakeChain) Vault(ctx context.Context, core, account common.Address) (types.VaultState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.vaultErr != nil {
		return types.VaultState{}, f.vaultErr
	}
	state, ok := f.vaults[account]
	if !ok {
		return types.VaultState{NormalizedBorrowedAmount: new(big.Int), CollateralAmount: new(big.Int)}, nil
	}
	return state, nil
}

func (f *fakeChain) SupportedBorrowAsset(ctx context.Context, core common.Address) (common.Address, error) {
	return f.borrowAsset, nil
}

func (f *fakeChain) TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tokenBalances) == 0 {
		return new(big.Int), nil
	}
	i := f.balanceCalls
	if i >= len(f.tokenBalances) {
		i = len(f.tokenBalances) - 1
	}
	f.balanceCalls++
	return f.tokenBalances[i], nil
}

func (f *fakeChain) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	return f.decimals, nil
}

func (f *fakeChain) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	return f.nativeBalance, nil
}

func (f *fakeChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeChain) Liquidate(ctx context.Context, liquidator, core common.Address, proof types.ScoreProof, gasPrice *big.Int, gasLimit uint64) (*ethtypes.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.liquidateErr[proof.Account]; ok {
		return nil, err
	}
	f.liquidated = append(f.liquidated, proof.Account)
	f.submittedDest = liquidator
	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    f.nextNonce,
		To:       &liquidator,
		Gas:      gasLimit,
		GasPrice: gasPrice,
	})
	f.nextNonce++
	return tx, nil
}

func (f *fakeChain) WaitMined(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := ethtypes.ReceiptStatusSuccessful
	if f.revertAll || f.revertedTxs[txHash] {
		status = ethtypes.ReceiptStatusFailed
	}
	return &ethtypes.Receipt{Status: status, TxHash: txHash}, nil
}

// fakeResolver returns a zero-score proof unless a score is scripted.
type fakeResolver struct {
	mu     sync.Mutex
	scores map[common.Address]*big.Int
	calls  int
}

func (r *fakeResolver) Resolve(ctx context.Context, account common.Address, protocol string) types.ScoreProof {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	proof := types.EmptyScoreProof(account, protocol)
	if score, ok := r.scores[account]; ok {
		proof.Score = new(big.Int).Set(score)
	}
	return proof
}

// fakeNotifier captures notifications.
type fakeNotifier struct {
	mu        sync.Mutex
	infos     []string
	criticals []string
}

func (n *fakeNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

func (n *fakeNotifier) Critical(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.criticals = append(n.criticals, msg)
}

func (n *fakeNotifier) Close() {}

// fakeStore captures persisted cycle reports.
type fakeStore struct {
	mu      sync.Mutex
	reports []types.CycleReport
	err     error
}

func (s *fakeStore) SaveCycleReport(report types.CycleReport) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.reports = append(s.reports, report)
	return int64(len(s.reports)), nil
}

var _ Chain = (*fakeChain)(nil)

func addr(n byte) common.Address {
	return common.HexToAddress(fmt.Sprintf("0x%040x", n))
}
