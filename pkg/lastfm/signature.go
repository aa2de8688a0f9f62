package lastfm

import (
	"crypto/md5"
	"encoding/hex"
	"maps"
	"slices"
	"strings"
)

// unsignedParams are never part of the signature base string.
var unsignedParams = map[string]bool{
	"format":   true,
	"callback": true,
}

// signParams returns the api_sig for params: the MD5 of every key+value
// pair sorted by key, followed by the shared secret.
func signParams(params map[string]string, secret string) string {
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(params)) {
		if unsignedParams[k] {
			continue
		}
		b.WriteString(k)
		b.WriteString(params[k])
	}
	b.WriteString(secret)

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
