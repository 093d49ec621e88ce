package hosterrors

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// riscv service and host ABI errors
var (
	ErrNotInExecContext       = errors.New("101|NotInExecContext: Not in exec context.")
	ErrContractNotFound       = errors.New("102|ContractNotFound: Contract account not found.")
	ErrCodeNotFound           = errors.New("103|CodeNotFound: Contract code not found.")
	ErrNonZeroExit            = errors.New("104|NonZeroExit: Contract exited with a non-zero status.")
	ErrVM                     = errors.New("105|VM: Interpreter failure.")
	ErrSerde                  = errors.New("106|Serde: Malformed payload.")
	ErrHexDecode              = errors.New("107|HexDecode: Invalid hex string.")
	ErrInvalidKey             = errors.New("108|InvalidKey: Invalid storage key.")
	ErrNonAuthorized          = errors.New("109|NonAuthorized: Caller is not authorized.")
	ErrOutOfCycles            = errors.New("110|OutOfCycles: Cycle limit exhausted.")
	ErrInvalidContractAddress = errors.New("111|InvalidContractAddress: Invalid contract address.")
	ErrWriteInReadonlyContext = errors.New("112|WriteInReadonlyContext: Write attempted in a read-only context.")
	ErrAssertFailed           = errors.New("113|AssertFailed: Contract assertion failed.")
)

// Invocation protocol errors
var (
	ErrResponseTooLarge     = errors.New("114|ResponseTooLarge: Response exceeds destination capacity.")
	ErrCallDepthExceeded    = errors.New("115|CallDepthExceeded: Call chain exceeds the maximum depth.")
	ErrEventTooLarge        = errors.New("116|EventTooLarge: Event exceeds the maximum size.")
	ErrStorageValueTooLarge = errors.New("117|StorageValueTooLarge: Storage value exceeds capacity.")
	ErrArgTooShort          = errors.New("118|ArgTooShort: Argument buffer shorter than the method minimum.")
	ErrAddressDecode        = errors.New("119|AddressDecode: Address operand could not be decoded.")
	ErrServiceNotFound      = errors.New("120|ServiceNotFound: Service is not registered.")
	ErrMethodNotFound       = errors.New("121|MethodNotFound: Service method not found.")
	ErrServiceCall          = errors.New("122|ServiceCall: Service invocation failed.")
	ErrContractCall         = errors.New("123|ContractCall: Contract invocation failed.")
	ErrArgTooLarge          = errors.New("124|ArgTooLarge: Argument buffer exceeds the maximum size.")
	ErrInvalidEventName     = errors.New("125|InvalidEventName: Event name is empty.")
)

// Asset service errors
var (
	ErrAssetNotFound       = errors.New("201|AssetNotFound: Asset does not exist.")
	ErrAssetExists         = errors.New("202|AssetExists: Asset already exists.")
	ErrInsufficientBalance = errors.New("203|InsufficientBalance: Balance is lower than the transfer value.")
	ErrBalanceOverflow     = errors.New("204|BalanceOverflow: Balance overflows 256 bits.")
	ErrInvalidAmount       = errors.New("205|InvalidAmount: Amount could not be parsed.")
	ErrTransferToSelf      = errors.New("206|TransferToSelf: Sender and recipient are the same account.")
	ErrApproveToSelf       = errors.New("207|ApproveToSelf: Grantor and grantee are the same account.")
)

// Aliases for the taxonomy used by contract authors.
var (
	ErrResourceExhausted = ErrOutOfCycles
	ErrReadModeViolation = ErrWriteInReadonlyContext
	ErrStorage           = ErrStorageValueTooLarge
	ErrArgDecode         = ErrArgTooShort
)

var known = []error{
	ErrNotInExecContext, ErrContractNotFound, ErrCodeNotFound, ErrNonZeroExit, ErrVM, ErrSerde,
	ErrHexDecode, ErrInvalidKey, ErrNonAuthorized, ErrOutOfCycles, ErrInvalidContractAddress,
	ErrWriteInReadonlyContext, ErrAssertFailed,
	ErrResponseTooLarge, ErrCallDepthExceeded, ErrEventTooLarge, ErrStorageValueTooLarge,
	ErrArgTooShort, ErrAddressDecode, ErrServiceNotFound, ErrMethodNotFound, ErrArgTooLarge,
	ErrInvalidEventName,
	ErrAssetNotFound, ErrAssetExists, ErrInsufficientBalance, ErrBalanceOverflow, ErrInvalidAmount,
	ErrTransferToSelf, ErrApproveToSelf,
	// wrappers last so the root cause wins
	ErrServiceCall, ErrContractCall,
}

// IsFatal reports errors that abort the whole invocation. Host
// cancellation counts as exhaustion.
func IsFatal(err error) bool {
	return errors.Is(err, ErrOutOfCycles) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Interrupted reports a cancelled or expired transaction context as
// exhaustion, keeping the context error in the chain.
func Interrupted(err error) error {
	if errors.Is(err, ErrOutOfCycles) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrOutOfCycles, err)
}

// Cause returns the first registered sentinel found in err's chain.
func Cause(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range known {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Code returns the numeric code of the registered sentinel wrapped by err,
// or 1 for unknown errors and 0 for nil.
func Code(err error) uint64 {
	if err == nil {
		return 0
	}
	cause := Cause(err)
	if cause == nil {
		return 1
	}
	code, convErr := strconv.ParseUint(GetErrorCode(cause), 10, 64)
	if convErr != nil {
		return 1
	}
	return code
}

// Name returns the name of the registered sentinel wrapped by err.
func Name(err error) string {
	if cause := Cause(err); cause != nil {
		return GetErrorName(cause)
	}
	return GetErrorName(err)
}

// GetErrorName extracts the error name from the error message.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	parts := strings.SplitN(errStr, "|", 2)
	nameParts := strings.SplitN(parts[1], ":", 2)
	return strings.TrimSpace(nameParts[0])
}

// GetErrorCode extracts the error code from the error message.
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") {
		return ""
	}
	parts := strings.SplitN(errStr, "|", 2)
	return strings.TrimSpace(parts[0])
}

// GetErrorDesc extracts the error description from the error message.
func GetErrorDesc(err error) string {
	if err == nil {
		return ""
	}
	parts := strings.SplitN(err.Error(), ":", 2)
	if len(parts) < 2 {
		return "DESC NOT SET"
	}
	return strings.TrimSpace(parts[1])
}
