package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// Keyer derives deterministic cache hashes from a unit's resolved inputs.
//
// Contract:
// - Determinism: identical inputs must produce identical hashes, regardless
//   of map iteration order or Unicode representation of equal strings.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key derives a cache hash from a unit ID and its resolved inputs.
	Key(unitID string, inputs map[string]any) (string, error)
}

// DefaultKeyer derives SHA-256 based hashes over canonical input JSON.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key derives a deterministic cache hash.
// Format: unit:<unitID>:<hash>
// where hash is the first 16 characters of SHA-256(canonical JSON(inputs))
func (k *DefaultKeyer) Key(unitID string, inputs map[string]any) (string, error) {
	// Canonicalize inputs to ensure deterministic serialization
	canonical, err := canonicalize(inputs)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize inputs: %w", err)
	}

	// Hash the canonical representation
	hash := sha256.Sum256(canonical)
	hashStr := hex.EncodeToString(hash[:8]) // First 8 bytes = 16 hex chars

	return fmt.Sprintf("unit:%s:%s", unitID, hashStr), nil
}

// canonicalize produces a deterministic JSON representation of a value.
// Maps are sorted by key, strings are NFC-normalized, and HTML characters
// are left unescaped, so equal inputs serialize identically.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	case string:
		return canonicalizeString(val)
	default:
		// Scalars and structs use standard JSON encoding. Values JSON
		// cannot represent (funcs, channels, NaN) fail here; callers
		// degrade that to a cache miss.
		return encodeJSON(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	// Sort keys
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Build ordered JSON object
	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		// Key
		keyBytes, err := canonicalizeString(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		// Value (recursively canonicalize)
		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}

// canonicalizeString NFC-normalizes at the serialization boundary so that
// equal strings in different Unicode compositions hash identically.
func canonicalizeString(s string) ([]byte, error) {
	return encodeJSON(norm.NFC.String(s))
}

// encodeJSON marshals without HTML escaping, so <, >, and & serialize the
// same way on every caller.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	// json.Encoder adds a trailing newline, remove it
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}
	return result, nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
