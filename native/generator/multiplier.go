package generator

import (
	"math/bits"

	"github.com/exfury/gridiron-core/native/fixedpoint"
)

// Multiplier returns the number of emission blocks between from and to after
// applying the bonus rate up to BonusEndBlock. Blocks before StartBlock never
// accrue.
func (c *Config) Multiplier(from, to uint64) (uint64, error) {
	if from < c.StartBlock {
		from = c.StartBlock
	}
	if to <= from {
		return 0, nil
	}
	bonus := c.BonusMultiplier
	if bonus == 0 {
		bonus = 1
	}
	switch {
	case to <= c.BonusEndBlock:
		return mulUint64(to-from, bonus)
	case from >= c.BonusEndBlock:
		return to - from, nil
	default:
		boosted, err := mulUint64(c.BonusEndBlock-from, bonus)
		if err != nil {
			return 0, err
		}
		total, carry := bits.Add64(boosted, to-c.BonusEndBlock, 0)
		if carry != 0 {
			return 0, fixedpoint.ErrArithmeticOverflow
		}
		return total, nil
	}
}

func mulUint64(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, fixedpoint.ErrArithmeticOverflow
	}
	return lo, nil
}
