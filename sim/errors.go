package sim

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps exactly one of these,
// so callers classify failures with errors.Is. None of them is recoverable:
// the simulation state that produced the error must not be used further.
var (
	// ErrConfiguration reports invalid parameters: sex ratios that leave a sex
	// empty, malformed migration or spatial settings, out-of-range rates.
	ErrConfiguration = errors.New("configuration error")

	// ErrComputation reports a sampling stratum whose total fitness is <= 0.
	ErrComputation = errors.New("computation error")

	// ErrCallbackContract reports a fitness callback that did not return
	// exactly one finite value.
	ErrCallbackContract = errors.New("callback contract error")

	// ErrUsage reports an operation called at the wrong point of the cycle or
	// with too few arguments.
	ErrUsage = errors.New("usage error")
)

func configErrorf(op, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrConfiguration, op, fmt.Sprintf(format, args...))
}

func computationErrorf(op, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrComputation, op, fmt.Sprintf(format, args...))
}

func callbackErrorf(op, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrCallbackContract, op, fmt.Sprintf(format, args...))
}

func usageErrorf(op, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrUsage, op, fmt.Sprintf(format, args...))
}
