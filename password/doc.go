// Package password implements the engine's default credential hasher using
// Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Parameters are read back from the stored hash during verification, so a
// configuration change never invalidates existing credentials;
// [Hasher.NeedsRehash] tells the caller when to re-hash on the next
// successful login.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Log plaintext passwords.
//   - Import any other goEnroll package.
package password
