// Package jwt issues and verifies short-lived access tokens.
//
// Tokens carry the user id as subject, email and role, and a random jti
// that the session cache can blacklist. Verification pins the algorithm,
// requires exp, and checks issuer, audience and kid when configured.
package jwt
