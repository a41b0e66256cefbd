package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer holds the liquidator's signing key. Nonce assignment and submission
// happen under one lock so concurrent liquidations in a batch cannot collide
// on a nonce; confirmation waits remain fully concurrent.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	impl    ethtypes.Signer

	mu sync.Mutex
}

// NewSigner parses a hex-encoded private key (with or without 0x prefix).
func NewSigner(hexKey string, chainID *big.Int) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse wallet private key: %w", err)
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
		impl:    ethtypes.LatestSignerForChainID(chainID),
	}, nil
}

// Address returns the signer's account address.
func (s *Signer) Address() common.Address {
	return s.address
}

// ChainID returns the chain the signer is bound to.
func (s *Signer) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

// SignSend builds, signs, and submits a legacy transaction carrying the given
// calldata. The pending nonce is read and the transaction sent while holding
// the signer lock.
func (s *Signer) SignSend(ctx context.Context, rpc RPC, to common.Address, data []byte, gasPrice *big.Int, gasLimit uint64) (*ethtypes.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nonce, err := rpc.PendingNonceAt(ctx, s.address)
	if err != nil {
		return nil, fmt.Errorf("failed to read pending nonce: %w", err)
	}

	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := ethtypes.SignTx(tx, s.impl, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := rpc.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	return signed, nil
}
