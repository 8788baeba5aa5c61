// Package policy holds the stateless decisions the flows make over entities:
// lockout duration, identifier shape checks and the security-question rules.
// Nothing here performs I/O.
package policy
