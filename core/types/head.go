package types

import (
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Head records the state root and clock of the last committed invocation.
type Head struct {
	Height    uint64      `json:"height"`
	Timestamp uint64      `json:"timestamp"`
	StateRoot common.Hash `json:"stateRoot"`
	// PrevRoot is the root the invocation was applied on top of.
	PrevRoot common.Hash `json:"prevRoot"`
	// Sequence counts committed invocations since genesis.
	Sequence uint64 `json:"sequence"`
}

// Hash returns the keccak256 digest of the RLP encoded head.
func (h *Head) Hash() (common.Hash, error) {
	encoded, err := rlp.EncodeToBytes(h)
	if err != nil {
		return common.Hash{}, err
	}
	return ethcrypto.Keccak256Hash(encoded), nil
}
