package state

import (
	"math/big"

	"github.com/exfury/gridiron-core/native/fixedpoint"
)

const (
	bankBalanceKey = "bank/balance/"
	bankSupplyKey  = "bank/supply/"
)

func bankBalanceStateKey(token, addr [20]byte) []byte {
	return composeKey(bankBalanceKey, token[:], []byte("/"), addr[:])
}

func bankSupplyStateKey(token [20]byte) []byte {
	return composeKey(bankSupplyKey, token[:])
}

// BankBalance returns the balance of addr in token. Missing entries are zero.
func (m *Manager) BankBalance(token, addr [20]byte) (*big.Int, error) {
	balance := new(big.Int)
	if _, err := m.KVGet(bankBalanceStateKey(token, addr), balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// PutBankBalance stores the balance of addr in token. Zero balances are
// deleted.
func (m *Manager) PutBankBalance(token, addr [20]byte, amount *big.Int) error {
	if fixedpoint.IsZero(amount) {
		return m.KVDelete(bankBalanceStateKey(token, addr))
	}
	return m.KVPut(bankBalanceStateKey(token, addr), amount)
}

// BankSupply returns the minted supply of token.
func (m *Manager) BankSupply(token [20]byte) (*big.Int, error) {
	supply := new(big.Int)
	if _, err := m.KVGet(bankSupplyStateKey(token), supply); err != nil {
		return nil, err
	}
	return supply, nil
}

// PutBankSupply stores the minted supply of token.
func (m *Manager) PutBankSupply(token [20]byte, amount *big.Int) error {
	return m.KVPut(bankSupplyStateKey(token), amount)
}
