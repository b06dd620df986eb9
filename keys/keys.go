// Package keys provides deterministic cache key derivation for request
// identity. The interceptor is agnostic to what constitutes identity; these
// helpers cover the common shape of route + parameters + principal so hosts
// do not hand-roll their own.
package keys

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnhashable is returned when a parameter value cannot be serialized for
// hashing (functions, channels).
var ErrUnhashable = errors.New("keys: value cannot be serialized for hashing")

// Join builds a composite key from ordered parts, e.g. route, principal,
// parameter digest. Parts are separated by ':'.
func Join(parts ...string) string {
	return strings.Join(parts, ":")
}

// Hash returns a short deterministic digest of v: msgpack encoding hashed
// with xxhash64, formatted as lowercase hex. Equal values produce equal
// digests. Maps are encoded in iteration order and are therefore not safe
// input; use a struct or a sorted slice of pairs instead.
func Hash(v any) (string, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return "", errors.WithSecondaryError(ErrUnhashable, err)
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16), nil
}

// Request derives a cache key from a route, a principal identity, and the
// request parameters: route + principal + Hash(params). Equivalent requests
// map to the same key; requests from different principals never collide.
func Request(route, principal string, params any) (string, error) {
	digest, err := Hash(params)
	if err != nil {
		return "", err
	}
	return Join(route, principal, digest), nil
}
