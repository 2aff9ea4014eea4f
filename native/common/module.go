package common

import ethcrypto "github.com/ethereum/go-ethereum/crypto"

// ModuleAddress derives the custody account of a native module. The address
// has no private key, so only the module itself can move its balances.
func ModuleAddress(module string) [20]byte {
	var out [20]byte
	copy(out[:], ethcrypto.Keccak256([]byte("module/"+module))[12:])
	return out
}
