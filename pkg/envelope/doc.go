// Package envelope implements a password-based encryption envelope for
// files and streams. A sealed envelope is a self-describing binary
// container: a version byte selecting the construction, a random salt
// for key derivation, an IV or nonce, the ciphertext, and a trailing
// authentication tag. Two constructions are supported: AES-256-CBC with
// a separate HMAC-SHA-512 tag (encrypt-then-MAC), and AES-256-GCM where
// the primitive authenticates internally.
package envelope
