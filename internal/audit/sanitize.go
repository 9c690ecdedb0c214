// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import "strings"

// Redacted replaces the value of every sensitive field.
const Redacted = "[REDACTED]"

// sensitiveTerms are matched as case-insensitive substrings of field names,
// after removing '_' and '-' so "credit_card" matches "creditcard".
var sensitiveTerms = []string{
	"password",
	"token",
	"secret",
	"key",
	"auth",
	"credential",
	"ssn",
	"creditcard",
	"cardnumber",
	"cvv",
	"pin",
}

// IsSensitive reports whether a field name denotes a secret.
func IsSensitive(field string) bool {
	normalized := strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(field))
	for _, term := range sensitiveTerms {
		if strings.Contains(normalized, term) {
			return true
		}
	}
	return false
}

// Sanitize returns a deep copy of value with sensitive fields redacted,
// descending through nested objects and arrays. The input is never modified.
func Sanitize(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clean := make(map[string]any, len(typed))
		for field, nested := range typed {
			if IsSensitive(field) {
				clean[field] = Redacted
				continue
			}
			clean[field] = Sanitize(nested)
		}
		return clean
	case []any:
		clean := make([]any, len(typed))
		for index, nested := range typed {
			clean[index] = Sanitize(nested)
		}
		return clean
	default:
		return value
	}
}
