package votingescrow

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/exfury/gridiron-core/native/fixedpoint"
)

// line is the contribution of one lock to the global curve.
type line struct {
	amount *big.Int
	end    uint64
}

func lineOf(lock *LockInfo) *line {
	if lock == nil {
		return nil
	}
	return &line{amount: fixedpoint.Copy(lock.Amount), end: lock.EndPeriod}
}

// pointAt returns the scaled point of l at period. Expired lines produce a
// zero point.
func (l *line) pointAt(period uint64) (*Point, error) {
	if l == nil || l.end <= period || fixedpoint.IsZero(l.amount) {
		return zeroPoint(period), nil
	}
	bias, err := fixedpoint.MulUint64(l.amount, l.end-period)
	if err != nil {
		return nil, err
	}
	return &Point{Period: period, Bias: bias, Slope: fixedpoint.Copy(l.amount)}, nil
}

// powerAt evaluates a point at a later period, clamping at zero. The result
// keeps the MaxLockPeriods scale so the global curve is the exact sum of the
// address curves.
func powerAt(point *Point, period uint64) (*big.Int, error) {
	if point == nil || period < point.Period {
		return big.NewInt(0), nil
	}
	decay, err := fixedpoint.MulUint64(point.Slope, period-point.Period)
	if err != nil {
		return nil, err
	}
	remaining, err := fixedpoint.SubFloor(point.Bias, decay)
	if err != nil {
		return nil, err
	}
	return remaining, nil
}

func (e *Engine) lastPoint(id HistoryID) (*Point, uint64, error) {
	count, err := e.state.EscrowHistoryLen(id)
	if err != nil || count == 0 {
		return nil, count, err
	}
	point, err := e.state.EscrowHistoryPoint(id, count-1)
	if err != nil {
		return nil, 0, err
	}
	return point, count, nil
}

// writePoint appends point to the history, replacing the last entry when it
// was recorded in the same period.
func (e *Engine) writePoint(id HistoryID, point *Point) error {
	last, count, err := e.lastPoint(id)
	if err != nil {
		return err
	}
	if last != nil {
		switch {
		case last.Period == point.Period:
			return e.state.PutEscrowHistoryPoint(id, count-1, point)
		case last.Period > point.Period:
			return fmt.Errorf("votingescrow: history %s already at period %d, cannot write %d", id, last.Period, point.Period)
		}
	}
	return e.state.PutEscrowHistoryPoint(id, count, point)
}

// pointAt binary searches the history for the latest point recorded at or
// before period. It returns nil when the history starts later.
func (e *Engine) pointAt(id HistoryID, period uint64) (*Point, error) {
	count, err := e.state.EscrowHistoryLen(id)
	if err != nil || count == 0 {
		return nil, err
	}
	var searchErr error
	idx := sort.Search(int(count), func(i int) bool {
		if searchErr != nil {
			return true
		}
		point, err := e.state.EscrowHistoryPoint(id, uint64(i))
		if err != nil {
			searchErr = err
			return true
		}
		return point.Period > period
	})
	if searchErr != nil {
		return nil, searchErr
	}
	if idx == 0 {
		return nil, nil
	}
	return e.state.EscrowHistoryPoint(id, uint64(idx-1))
}

// replay folds the scheduled slope changes in (point.Period, target] into the
// global point and returns the point at target.
func (e *Engine) replay(point *Point, target uint64, periods []uint64) (*Point, error) {
	out := point.Clone()
	if target <= out.Period {
		return out, nil
	}
	cursor := out.Period
	start := sort.Search(len(periods), func(i int) bool { return periods[i] > cursor })
	for _, period := range periods[start:] {
		if period > target {
			break
		}
		if err := out.advance(cursor, period); err != nil {
			return nil, err
		}
		change, err := e.state.EscrowSlopeChange(period)
		if err != nil {
			return nil, err
		}
		if out.Slope, err = fixedpoint.Sub(out.Slope, change); err != nil {
			return nil, err
		}
		cursor = period
	}
	if err := out.advance(cursor, target); err != nil {
		return nil, err
	}
	out.Period = target
	return out, nil
}

func (p *Point) advance(from, to uint64) error {
	decay, err := fixedpoint.MulUint64(p.Slope, to-from)
	if err != nil {
		return err
	}
	p.Bias, err = fixedpoint.Sub(p.Bias, decay)
	return err
}

// foldTotal brings the global curve forward to period without persisting it.
func (e *Engine) foldTotal(period uint64, periods []uint64) (*Point, error) {
	last, _, err := e.lastPoint(TotalHistory)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return zeroPoint(period), nil
	}
	if last.Period > period {
		return nil, fmt.Errorf("votingescrow: global curve already at period %d, cannot fold to %d", last.Period, period)
	}
	return e.replay(last, period, periods)
}

// schedule adds delta (which may be negative) to the slope change at period
// and keeps the sorted period index in step.
func (e *Engine) schedule(period uint64, delta *big.Int, periods []uint64) ([]uint64, error) {
	current, err := e.state.EscrowSlopeChange(period)
	if err != nil {
		return nil, err
	}
	var next *big.Int
	if delta.Sign() >= 0 {
		next, err = fixedpoint.Add(current, delta)
	} else {
		next, err = fixedpoint.Sub(current, new(big.Int).Neg(delta))
	}
	if err != nil {
		return nil, err
	}
	if err := e.state.PutEscrowSlopeChange(period, next); err != nil {
		return nil, err
	}
	idx := sort.Search(len(periods), func(i int) bool { return periods[i] >= period })
	present := idx < len(periods) && periods[idx] == period
	switch {
	case next.Sign() == 0 && present:
		periods = append(periods[:idx], periods[idx+1:]...)
	case next.Sign() > 0 && !present:
		periods = append(periods, 0)
		copy(periods[idx+1:], periods[idx:])
		periods[idx] = period
	}
	return periods, nil
}

// moveLine replaces the global contribution of old with next at period. Only
// lines still active at period contribute.
func (e *Engine) moveLine(total *Point, period uint64, old, next *line, periods []uint64) ([]uint64, error) {
	var err error
	if old != nil && old.end > period && !fixedpoint.IsZero(old.amount) {
		if periods, err = e.schedule(old.end, new(big.Int).Neg(old.amount), periods); err != nil {
			return nil, err
		}
		contribution, err := old.pointAt(period)
		if err != nil {
			return nil, err
		}
		if total.Bias, err = fixedpoint.Sub(total.Bias, contribution.Bias); err != nil {
			return nil, err
		}
		if total.Slope, err = fixedpoint.Sub(total.Slope, contribution.Slope); err != nil {
			return nil, err
		}
	}
	if next != nil && next.end > period && !fixedpoint.IsZero(next.amount) {
		if periods, err = e.schedule(next.end, next.amount, periods); err != nil {
			return nil, err
		}
		contribution, err := next.pointAt(period)
		if err != nil {
			return nil, err
		}
		if total.Bias, err = fixedpoint.Add(total.Bias, contribution.Bias); err != nil {
			return nil, err
		}
		if total.Slope, err = fixedpoint.Add(total.Slope, contribution.Slope); err != nil {
			return nil, err
		}
	}
	return periods, nil
}

// checkpoint records a lock mutation of addr at period: the address point is
// rewritten from next, and when the address counts towards the total the
// global curve swaps the old line for the new one.
func (e *Engine) checkpoint(addr [20]byte, period uint64, old, next *line, counted bool) error {
	periods, err := e.state.EscrowSlopePeriods()
	if err != nil {
		return err
	}
	total, err := e.foldTotal(period, periods)
	if err != nil {
		return err
	}
	if counted {
		if periods, err = e.moveLine(total, period, old, next, periods); err != nil {
			return err
		}
		if err := e.state.PutEscrowSlopePeriods(periods); err != nil {
			return err
		}
	}
	if err := e.writePoint(TotalHistory, total); err != nil {
		return err
	}
	userPoint, err := next.pointAt(period)
	if err != nil {
		return err
	}
	return e.writePoint(AccountHistory(addr), userPoint)
}

// Checkpoint folds the global curve to the current period and records it.
func (e *Engine) Checkpoint() (*Point, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	period, err := e.CurrentPeriod()
	if err != nil {
		return nil, err
	}
	periods, err := e.state.EscrowSlopePeriods()
	if err != nil {
		return nil, err
	}
	total, err := e.foldTotal(period, periods)
	if err != nil {
		return nil, err
	}
	if err := e.writePoint(TotalHistory, total); err != nil {
		return nil, err
	}
	return total.Clone(), nil
}

// VotingPower returns the voting power of addr at the current period.
func (e *Engine) VotingPower(addr [20]byte) (*big.Int, error) {
	period, err := e.CurrentPeriod()
	if err != nil {
		return nil, err
	}
	return e.VotingPowerAt(addr, period)
}

// VotingPowerAt returns the voting power of addr at period. Blacklisted
// addresses always report zero.
func (e *Engine) VotingPowerAt(addr [20]byte, period uint64) (*big.Int, error) {
	_, current, err := e.queryClock()
	if err != nil {
		return nil, err
	}
	if period > current {
		return nil, ErrFutureQuery
	}
	return e.votingPowerAt(addr, period)
}

// VotingPowerAtTime returns the voting power of addr at the period holding
// timestamp ts.
func (e *Engine) VotingPowerAtTime(addr [20]byte, ts uint64) (*big.Int, error) {
	cfg, _, err := e.queryClock()
	if err != nil {
		return nil, err
	}
	if ts > e.blockTime {
		return nil, ErrFutureQuery
	}
	return e.votingPowerAt(addr, cfg.PeriodFromTime(ts))
}

func (e *Engine) votingPowerAt(addr [20]byte, period uint64) (*big.Int, error) {
	listed, err := e.state.EscrowBlacklisted(addr)
	if err != nil {
		return nil, err
	}
	if listed {
		return big.NewInt(0), nil
	}
	point, err := e.pointAt(AccountHistory(addr), period)
	if err != nil {
		return nil, err
	}
	return powerAt(point, period)
}

// TotalVotingPower returns the global voting power at the current period.
func (e *Engine) TotalVotingPower() (*big.Int, error) {
	period, err := e.CurrentPeriod()
	if err != nil {
		return nil, err
	}
	return e.TotalVotingPowerAt(period)
}

// TotalVotingPowerAt returns the global voting power at period, replaying
// scheduled slope changes past the last recorded global point.
func (e *Engine) TotalVotingPowerAt(period uint64) (*big.Int, error) {
	_, current, err := e.queryClock()
	if err != nil {
		return nil, err
	}
	if period > current {
		return nil, ErrFutureQuery
	}
	return e.totalVotingPowerAt(period)
}

// TotalVotingPowerAtTime returns the global voting power at the period holding
// timestamp ts.
func (e *Engine) TotalVotingPowerAtTime(ts uint64) (*big.Int, error) {
	cfg, _, err := e.queryClock()
	if err != nil {
		return nil, err
	}
	if ts > e.blockTime {
		return nil, ErrFutureQuery
	}
	return e.totalVotingPowerAt(cfg.PeriodFromTime(ts))
}

func (e *Engine) totalVotingPowerAt(period uint64) (*big.Int, error) {
	point, err := e.pointAt(TotalHistory, period)
	if err != nil {
		return nil, err
	}
	if point == nil {
		return big.NewInt(0), nil
	}
	periods, err := e.state.EscrowSlopePeriods()
	if err != nil {
		return nil, err
	}
	folded, err := e.replay(point, period, periods)
	if err != nil {
		return nil, err
	}
	return fixedpoint.Copy(folded.Bias), nil
}

func (e *Engine) queryClock() (*Config, uint64, error) {
	if e == nil || e.state == nil {
		return nil, 0, errNilState
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, 0, err
	}
	return cfg, cfg.PeriodFromTime(e.blockTime), nil
}
