package passwordless

import "time"

// IsClaimValid reports whether claim has not expired at now. Every flow
// that needs to know if a claim is usable goes through this predicate.
func IsClaimValid(claim *EmailVerificationClaim, now time.Time) bool {
	if claim == nil {
		return false
	}
	return claim.Expires.After(now)
}

// FindValidClaim returns the first valid claim in claims
func FindValidClaim(claims []*EmailVerificationClaim, now time.Time) (*EmailVerificationClaim, bool) {
	valid := ValidClaims(claims, now)
	if len(valid) == 0 {
		return nil, false
	}
	return valid[0], true
}

// ValidClaims filters claims down to the ones still valid at now
func ValidClaims(claims []*EmailVerificationClaim, now time.Time) []*EmailVerificationClaim {
	out := make([]*EmailVerificationClaim, 0, len(claims))
	for _, claim := range claims {
		if IsClaimValid(claim, now) {
			out = append(out, claim)
		}
	}
	return out
}
