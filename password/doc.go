// Package password hashes and verifies short staff secrets (PINs) with Argon2id.
//
// Hashes are PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification reads its cost parameters from the stored string, so hashes produced with
// older settings keep verifying; [Argon2.NeedsUpgrade] tells the caller when to re-hash.
package password
