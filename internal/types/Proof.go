package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ScoreProof is an off-chain attestation of a borrower's credit score for one
// protocol namespace, in the exact shape the liquidation contract consumes.
type ScoreProof struct {
	Account     common.Address
	Protocol    [32]byte
	Score       *big.Int
	MerkleProof [][32]byte
}

// EmptyScoreProof builds the zero-score substitute proof used whenever the
// score service cannot produce a real one. A zero score yields the most
// conservative assessed ratio, so the substitution always errs toward
// liquidating, never away from it.
func EmptyScoreProof(account common.Address, protocol string) ScoreProof {
	return ScoreProof{
		Account:     account,
		Protocol:    ProtocolBytes32(protocol),
		Score:       new(big.Int),
		MerkleProof: [][32]byte{},
	}
}

// ProtocolBytes32 encodes a protocol identifier as a right-padded bytes32,
// matching the contract's string encoding. Identifiers longer than 31 bytes
// are truncated.
func ProtocolBytes32(protocol string) [32]byte {
	var out [32]byte
	copy(out[:31], protocol)
	return out
}
