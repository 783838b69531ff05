// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package procedure

import (
	"strconv"

	"github.com/z5labs/relay/validate"
)

// Key identifies a declared error condition. For HTTP transports
// the key is a numeric status code, e.g. "404"; for message based
// transports it is a free form error code, e.g. "order_rejected".
// The key doubles as the transport marker of a classified error.
type Key string

// StatusKey returns the [Key] for an HTTP status code.
func StatusKey(code int) Key {
	return Key(strconv.Itoa(code))
}

// Status returns the numeric HTTP status of the key, if it has one.
func (k Key) Status() (int, bool) {
	n, err := strconv.Atoi(string(k))
	if err != nil || n < 100 || n > 599 {
		return 0, false
	}
	return n, true
}

// ErrorEntry is a single declared error condition.
type ErrorEntry struct {
	Key       Key
	Validator validate.Validator
}

// ErrorMap is an ordered collection of declared error conditions
// used to classify values thrown during a pipeline run.
//
// Entry order is insertion order. Adding an entry for a key which
// is already present does not overwrite nor reorder it; instead the
// existing validator and the new validator are unioned, so a thrown
// value matching either one classifies as that key.
//
// ErrorMap values are immutable; Add and Merge return copies.
type ErrorMap struct {
	entries []ErrorEntry
}

// Add returns a copy of m with the given error condition declared.
func (m ErrorMap) Add(k Key, v validate.Validator) ErrorMap {
	entries := make([]ErrorEntry, len(m.entries), len(m.entries)+1)
	copy(entries, m.entries)

	for i, entry := range entries {
		if entry.Key != k {
			continue
		}
		entries[i] = ErrorEntry{
			Key:       k,
			Validator: validate.Any(entry.Validator, v),
		}
		return ErrorMap{entries: entries}
	}

	entries = append(entries, ErrorEntry{Key: k, Validator: v})
	return ErrorMap{entries: entries}
}

// Merge returns a copy of m with all of other's entries added, in
// other's entry order, applying the same union on collision rule.
func (m ErrorMap) Merge(other ErrorMap) ErrorMap {
	merged := m
	for _, entry := range other.entries {
		merged = merged.Add(entry.Key, entry.Validator)
	}
	return merged
}

// Entries returns the declared error conditions in collision
// resolved insertion order. The returned slice must not be modified.
func (m ErrorMap) Entries() []ErrorEntry {
	return m.entries
}

// Len returns the number of declared error conditions.
func (m ErrorMap) Len() int {
	return len(m.entries)
}
