package passwordless

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeAlreadySignedUp     = "USER_ALREADY_SIGNED_UP"
	TextCodeVerificationPending = "VERIFICATION_PENDING"
	TextCodeUserNotFound        = "USER_NOT_FOUND"
	TextCodeAlreadyVerified     = "USER_ALREADY_VERIFIED"
	TextCodeNoValidClaim        = "NO_VALID_CLAIM"
	TextCodeInvalidToken        = "INVALID_TOKEN"
	TextCodeConfirmation        = "CONFIRMATION_REQUIRED"
	TextCodeSessionNotFound     = "SESSION_NOT_FOUND"
	TextCodeForbidden           = "FORBIDDEN"
	TextCodeEmailDelivery       = "EMAIL_DELIVERY_FAILED"
	TextCodeUsernameTaken       = "USERNAME_TAKEN"
)

// ErrAlreadySignedUp is returned when a verified account exists for the email
var ErrAlreadySignedUp = goerrors.New("user already signed up", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadySignedUp).
	WithCode(goerrors.CodeConflict)

// ErrVerificationPending is returned when the email already has an
// unexpired verification claim
var ErrVerificationPending = goerrors.New("verification email already sent", goerrors.CategoryConflict).
	WithTextCode(TextCodeVerificationPending).
	WithCode(goerrors.CodeConflict)

// ErrUsernameTaken is returned when a new account would reuse a username
var ErrUsernameTaken = goerrors.New("username already taken", goerrors.CategoryConflict).
	WithTextCode(TextCodeUsernameTaken).
	WithCode(goerrors.CodeConflict)

// ErrUserNotFound is returned when no usable account matches the request
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrAlreadyVerified is returned by resend for verified accounts
var ErrAlreadyVerified = goerrors.New("user already verified", goerrors.CategoryBadInput).
	WithTextCode(TextCodeAlreadyVerified).
	WithCode(goerrors.CodeBadRequest)

// ErrNoValidClaim is returned by resend when every claim has expired
var ErrNoValidClaim = goerrors.New("no valid verification claim", goerrors.CategoryBadInput).
	WithTextCode(TextCodeNoValidClaim).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidVerificationToken is returned for unknown or expired tokens
var ErrInvalidVerificationToken = goerrors.New("invalid or expired verification token", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeBadRequest)

// ErrConfirmationRequired is returned when a delete request is not confirmed
var ErrConfirmationRequired = goerrors.New("account deletion must be confirmed", goerrors.CategoryBadInput).
	WithTextCode(TextCodeConfirmation).
	WithCode(goerrors.CodeBadRequest)

// ErrUnableToFindSession is the error when our request has no usable session
var ErrUnableToFindSession = goerrors.New("unable to find session", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound).
	WithCode(goerrors.CodeUnauthorized)

// ErrNotSubject is returned when a user tries to act on another account
var ErrNotSubject = goerrors.New("not allowed to act on this user", goerrors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrEmailDelivery is returned when the notifier fails after the
// database work was committed
var ErrEmailDelivery = goerrors.New("unable to deliver email", goerrors.CategoryInternal).
	WithTextCode(TextCodeEmailDelivery).
	WithCode(goerrors.CodeInternal)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed")
}
