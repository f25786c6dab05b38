package trust

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MinCodeLength and MaxCodeLength bound trust codes. The upper bound
	// keeps derived database names well under PostgreSQL's 63-byte
	// identifier limit even with the longest configured prefix.
	MinCodeLength = 2
	MaxCodeLength = 20
)

// codePattern accepts lower-case alphanumerics plus hyphen and underscore,
// starting with an alphanumeric. Codes are matched after normalization.
var codePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// reservedCodes are subdomains and identifiers that can never name a trust.
// They collide with platform routing (admin console, API gateway) or with
// conventional DNS names an operator may point at the deployment.
var reservedCodes = map[string]struct{}{
	"admin":  {},
	"api":    {},
	"system": {},
	"www":    {},
	"app":    {},
	"mail":   {},
	"ftp":    {},
}

// NormalizeCode case-folds and trims a candidate trust code. All registry
// lookups and database-name derivations operate on normalized codes.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// ValidateCode normalizes a candidate code and checks it against the
// syntax rules and the reserved-word set. Returns the normalized code or
// an error wrapping ErrInvalidCode.
func ValidateCode(code string) (string, error) {
	code = NormalizeCode(code)

	if len(code) < MinCodeLength || len(code) > MaxCodeLength {
		return "", fmt.Errorf("%w: %q must be %d-%d characters", ErrInvalidCode, code, MinCodeLength, MaxCodeLength)
	}
	if !codePattern.MatchString(code) {
		return "", fmt.Errorf("%w: %q contains invalid characters", ErrInvalidCode, code)
	}
	if _, reserved := reservedCodes[code]; reserved {
		return "", fmt.Errorf("%w: %q is reserved", ErrInvalidCode, code)
	}

	return code, nil
}

// IsReservedCode reports whether the normalized form of code is reserved.
func IsReservedCode(code string) bool {
	_, ok := reservedCodes[NormalizeCode(code)]
	return ok
}
