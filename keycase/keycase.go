// Package keycase rewrites JSON object keys between camelCase and snake_case.
//
// The gateway API speaks snake_case on the wire while the SDK exposes
// camelCase to callers. The two string rules are intentionally simple and
// are NOT exact inverses: keys with pre-existing underscores collapse on the
// way back ("legacy_id" survives ToSnake untouched but ToCamel turns it into
// "legacyId") and a leading uppercase letter grows a leading underscore. The
// remote API's key spellings are the ground truth, so the rules must stay
// byte-for-byte as they are rather than being made symmetric.
package keycase

import "strings"

// ToSnake converts a camelCase key to snake_case. An underscore is inserted
// before every uppercase letter, which is then lowercased. Consecutive
// uppercase letters each get their own underscore.
func ToSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToCamel converts a snake_case key to camelCase. Every underscore followed
// by a letter is removed and the letter is uppercased. Trailing underscores
// and underscores followed by non-letters are preserved.
func ToCamel(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '_' && i+1 < len(runes) && isLetter(runes[i+1]) {
			next := runes[i+1]
			if next >= 'a' && next <= 'z' {
				next -= 'a' - 'A'
			}
			b.WriteRune(next)
			i++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// KeysToSnake recursively rewrites every object key in a decoded JSON value
// to snake_case. Arrays are walked element-wise; scalars and nil pass
// through unchanged.
func KeysToSnake(v interface{}) interface{} {
	return transform(v, ToSnake)
}

// KeysToCamel recursively rewrites every object key in a decoded JSON value
// to camelCase. Arrays are walked element-wise; scalars and nil pass
// through unchanged.
func KeysToCamel(v interface{}) interface{} {
	return transform(v, ToCamel)
}

// transform walks the three JSON shapes explicitly: object, array, scalar.
// Only string-keyed maps are rewritten; anything else is returned as-is.
func transform(v interface{}, rule func(string) string) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			out[rule(k)] = transform(inner, rule)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = transform(inner, rule)
		}
		return out
	default:
		return v
	}
}
