// Package token mints and verifies the signed access/refresh token pairs
// issued by the enrollment engine.
//
// # Design
//
// [Signer] owns cryptography only: signature creation and verification under
// an explicitly injected key (Ed25519 or HMAC-SHA256). [Issuer] layers claim
// construction on top: each pair shares subject and role but carries distinct
// jti values, a typed [Kind] discriminator, and separate expiries. Signature
// validity and temporal validity are split on purpose — [Signer.Verify] never
// evaluates expiry, so the two can be tested independently and replay
// tracking can live outside this package.
//
// # What this package must NOT do
//
//   - Track consumed tokens — replay prevention belongs to the ReplayGuard.
//   - Reach Redis or any other datastore.
//   - Import goEnroll or any sibling package.
package token
