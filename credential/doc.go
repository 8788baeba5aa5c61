// Package credential holds the durable records the engine reasons about and
// the store contracts that persist them.
//
// Entities carry their own invariants (lockout, single-use tokens) so use
// cases never re-derive them. Lookups on a [Store] return a nil entity and a
// nil error when nothing matches; only infrastructure faults are errors.
package credential
