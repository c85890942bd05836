// Package identity derives stable workspace identifiers from paths.
//
// The identifier is a pure function of the canonical path, so a workspace
// rediscovered on disk after a restart gets the same id it had when created.
package identity

import (
	"crypto/sha1" // #nosec G505 -- identifier, not a security boundary
	"encoding/hex"
	"path/filepath"
)

// Prefix is prepended to every workspace id.
const Prefix = "wt-"

// hexLen is the number of digest hex characters kept in an id.
const hexLen = 12

// IDFor returns "wt-" followed by the first 12 hex characters of the SHA-1
// of the canonicalized path.
func IDFor(path string) string {
	sum := sha1.Sum([]byte(Canonicalize(path))) // #nosec G401
	return Prefix + hex.EncodeToString(sum[:])[:hexLen]
}

// Canonicalize makes path absolute, cleans it and resolves symlinks.
// If the path cannot be resolved (for example it no longer exists) it is
// returned as given.
func Canonicalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return path
	}
	return resolved
}
