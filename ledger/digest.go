/*
digest.go - Secret digest computation

PURPOSE:
  Accounts never store the raw credential, only a comparable digest.
  The scheme is a fixed-salt SHA-256 rendered as 64 lowercase hex
  characters: not a production KDF (no per-account salt, no stretching),
  but the stored format the rest of the system compares against.

  Digest is an interface so a proper KDF can be swapped in without
  touching the Service. Validation compares digests, never raw secrets.
*/
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
)

// digestSalt is appended to the raw credential before hashing.
const digestSalt = "-salt"

// Digest turns a raw credential into its stored representation.
type Digest interface {
	Encode(raw string) string
}

// SaltedSHA256 is the default Digest: hex(sha256(raw + salt)).
type SaltedSHA256 struct{}

func (SaltedSHA256) Encode(raw string) string {
	sum := sha256.Sum256([]byte(raw + digestSalt))
	return hex.EncodeToString(sum[:])
}
