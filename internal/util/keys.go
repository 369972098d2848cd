package util

import "strings"

// ValidKey reports whether key may be used as a cache key: it must contain
// at least one non-whitespace character.
func ValidKey(key string) bool {
	return strings.TrimSpace(key) != ""
}

// StorageKey isolates userKey under namespace ns. An empty ns leaves the key
// untouched so entries stay addressable by other clients of the same store.
func StorageKey(ns, userKey string) string {
	if ns == "" {
		return userKey
	}
	return ns + ":" + userKey
}
