// Package passwordless implements email based, password free authentication
// on top of Bun repositories and go-router controllers.
//
// Verification claims:
//   - An EmailVerificationClaim is a random token with an absolute expiration
//     owned by a user. IsClaimValid is the single validity rule, every flow
//     goes through it. Sign-up and sign-in claims share the table.
//   - SignUpHandler runs the sign-up state machine inside one transaction:
//     look up the user, reject verified users and users with a pending claim,
//     otherwise clear leftover claims, create or reuse the user and issue a
//     fresh claim. The confirmation email is sent after commit.
//   - ResendSignUpEmailHandler only re-sends the link of the current valid
//     claim. It never writes.
//   - SignInHandler issues a claim for verified users without clearing older
//     claims.
//   - VerifyEmailHandler consumes a claim, flips email_verified on first use
//     and starts a session.
//
// Sessions:
//   - Sessions live in the sessions table. The cookie is a signed JWT that
//     references the row, so deleting rows signs users out.
//
// Activity sinks:
//   - ActivitySink receives best-effort audit events for every flow. Errors
//     are logged and never fail the request.
package passwordless
