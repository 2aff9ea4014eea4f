package rpc

import (
	"errors"
	"net/http"

	"github.com/exfury/gridiron-core/core"
	"github.com/exfury/gridiron-core/native/bank"
	nativecommon "github.com/exfury/gridiron-core/native/common"
	"github.com/exfury/gridiron-core/native/fixedpoint"
	"github.com/exfury/gridiron-core/native/generator"
	"github.com/exfury/gridiron-core/native/votingescrow"
)

var statusTable = []struct {
	status int
	errs   []error
}{
	{http.StatusBadRequest, []error{
		core.ErrInvalidMsg,
		core.ErrUnknownMsg,
		core.ErrInvalidQuery,
		generator.ErrInvalidAmount,
		generator.ErrInvalidAddress,
		votingescrow.ErrInvalidAmount,
		votingescrow.ErrInvalidPeriods,
		votingescrow.ErrLockTooShort,
		votingescrow.ErrLockTooLong,
		votingescrow.ErrInvalidAddress,
		votingescrow.ErrFutureQuery,
		bank.ErrInvalidAmount,
		bank.ErrInvalidAddress,
	}},
	{http.StatusForbidden, []error{nativecommon.ErrUnauthorized}},
	{http.StatusNotFound, []error{
		core.ErrQueryNotSupported,
		generator.ErrPoolNotFound,
		votingescrow.ErrNoLockFound,
	}},
	{http.StatusConflict, []error{
		core.ErrClockRegression,
		generator.ErrDuplicatePool,
		generator.ErrInsufficientBalance,
		votingescrow.ErrLockAlreadyExists,
		votingescrow.ErrLockExpired,
		votingescrow.ErrLockNotExpired,
		votingescrow.ErrAddressBlacklisted,
		bank.ErrInsufficientFunds,
	}},
	{http.StatusUnprocessableEntity, []error{fixedpoint.ErrArithmeticOverflow}},
	{http.StatusServiceUnavailable, []error{nativecommon.ErrModulePaused}},
}

// statusFor maps a ledger error to the HTTP status returned to clients.
func statusFor(err error) int {
	for _, row := range statusTable {
		for _, target := range row.errs {
			if errors.Is(err, target) {
				return row.status
			}
		}
	}
	return http.StatusInternalServerError
}
