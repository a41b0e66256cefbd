package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Core identifies one monitored lending market: the debt engine contract that
// holds the vaults, the price oracle for its collateral, and the assessor that
// defines the credit score range. Immutable after construction; exactly one
// poll cycle owns each Core.
type Core struct {
	// CollateralGroup is the human label of the market (e.g. "WETH-A").
	CollateralGroup string

	// Address is the debt engine (core proxy) contract.
	Address common.Address
	// Oracle is the collateral price oracle contract.
	Oracle common.Address
	// Assessor is the credit score assessor contract.
	Assessor common.Address

	// CreationTx is the transaction that deployed the core contract. Its block
	// height is the floor for borrow event scans.
	CreationTx common.Hash
}

// VaultState is one borrower's on-chain position within a Core. Read fresh
// every cycle, never cached.
type VaultState struct {
	// NormalizedBorrowedAmount is the borrow principal before applying the
	// protocol's cumulative borrow index.
	NormalizedBorrowedAmount *big.Int
	// CollateralAmount is the deposited collateral.
	CollateralAmount *big.Int
}
