package events

import (
	"math/big"
	"strconv"

	"github.com/exfury/gridiron-core/crypto"
)

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatAddr(raw [20]byte) string {
	return crypto.FromRaw(raw).String()
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func zeroAddress(raw [20]byte) bool {
	return raw == [20]byte{}
}
