package domain

import "errors"

// Sentinel errors for the error kinds of spec §7, returned by the engine and
// registry. The multiplexer returns no errors: it reports subscriber
// overflow through logs and metrics, so ErrOverflow is never returned. Wrap
// with fmt.Errorf("%w: ...") for caller-facing detail; callers should
// errors.Is against these rather than string-match reject reasons.
var (
	ErrValidation        = errors.New("validation_error")
	ErrFokUnfillable     = errors.New("fok_unfillable")
	ErrNotFound          = errors.New("not_found")
	ErrOverflow          = errors.New("overflow")
	ErrInternalInvariant = errors.New("internal_invariant")
	ErrSymbolQuarantined = errors.New("symbol_quarantined")
)

// RejectReason maps a sentinel error to the wire-facing reason string used
// in SubmitResult.RejectReason (spec §6, §7).
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ErrFokUnfillable):
		return "fok_unfillable"
	case errors.Is(err, ErrSymbolQuarantined):
		return "symbol_quarantined"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case err != nil:
		return "internal_error"
	default:
		return ""
	}
}
