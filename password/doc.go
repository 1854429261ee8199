// Package password implements password hashing and verification.
//
// [Argon2] is the default. Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Bcrypt] serves collections created by bcrypt-based stacks.
//
// Both hashers support transparent parameter upgrades: if the stored hash was
// produced with weaker parameters, NeedsUpgrade returns true so the caller can
// re-hash on the next successful login.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other mongoAuth package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
