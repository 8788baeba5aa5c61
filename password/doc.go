// Package password hashes secrets with Argon2id, enforces the password
// policy, and bounds how many memory-hard hashes run at once.
//
// # Output format
//
// Hashes are PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.NeedsUpgrade] reports hashes produced with weaker parameters.
//
// # Concurrency
//
// [Pool] caps concurrent Hash/Verify calls so a burst of logins cannot
// exhaust memory; callers waiting for a slot honour context cancellation.
//
// The package never logs or stores plaintext.
package password
