package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidateName validates an instance, port or design name.
// Names are used as identities for write-back and as cache-key material, so
// they must be non-empty, bounded and free of control characters.
func ValidateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidDesign, "%s name cannot be empty", kind)
	}

	if len(name) > 1024 {
		return New(ErrCodeInvalidDesign, "%s name too long (max 1024 characters)", kind)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidDesign, "%s name %q contains control characters", kind, name)
		}
	}

	if strings.TrimSpace(name) != name {
		return New(ErrCodeInvalidDesign, "%s name %q has surrounding whitespace", kind, name)
	}

	return nil
}

// ValidateRect checks that lx <= ux and ly <= uy and that all values are finite.
func ValidateRect(kind string, lx, ly, ux, uy float64) error {
	for _, v := range []float64{lx, ly, ux, uy} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidInput, "%s has a non-finite coordinate", kind)
		}
	}
	if lx > ux || ly > uy {
		return New(ErrCodeInvalidInput, "%s is inverted: (%g,%g)-(%g,%g)", kind, lx, ly, ux, uy)
	}
	return nil
}

// ValidateNonNegative checks that a size or spacing value is finite and >= 0.
func ValidateNonNegative(kind string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidInput, "%s is not finite", kind)
	}
	if v < 0 {
		return New(ErrCodeInvalidInput, "%s must be >= 0, got %g", kind, v)
	}
	return nil
}
