// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/storehub/internal/audit"
)

/*
TestSanitize_RedactsNestedFields verifies sensitive keys are redacted at any depth.
*/
func TestSanitize_RedactsNestedFields(t *testing.T) {
	input := map[string]any{
		"password": "x",
		"nested":   map[string]any{"token": "y"},
		"name":     "z",
	}

	got := audit.Sanitize(input)

	assert.Equal(t, map[string]any{
		"password": audit.Redacted,
		"nested":   map[string]any{"token": audit.Redacted},
		"name":     "z",
	}, got)
}

/*
TestSanitize_DescendsIntoArrays verifies objects inside arrays are redacted too.
*/
func TestSanitize_DescendsIntoArrays(t *testing.T) {
	input := map[string]any{
		"cards": []any{
			map[string]any{"card_number": "4111", "holder": "Ann"},
			"plain",
			float64(7),
		},
	}

	got := audit.Sanitize(input).(map[string]any)

	cards := got["cards"].([]any)
	assert.Equal(t, map[string]any{"card_number": audit.Redacted, "holder": "Ann"}, cards[0])
	assert.Equal(t, "plain", cards[1])
	assert.Equal(t, float64(7), cards[2])
}

/*
TestSanitize_LeavesInputUntouched verifies the caller's value is never modified.
*/
func TestSanitize_LeavesInputUntouched(t *testing.T) {
	nested := map[string]any{"apiKey": "k"}
	input := map[string]any{"config": nested}

	_ = audit.Sanitize(input)

	assert.Equal(t, "k", nested["apiKey"])
}

/*
TestIsSensitive covers the field name matching rules.
*/
func TestIsSensitive(t *testing.T) {
	tests := []struct {
		field string
		want  bool
	}{
		{"password", true},
		{"newPassword", true},
		{"ACCESS_TOKEN", true},
		{"client-secret", true},
		{"api_key", true},
		{"Authorization", true},
		{"credentials", true},
		{"ssn", true},
		{"credit_card", true},
		{"cardNumber", true},
		{"cvv", true},
		{"pin", true},
		{"name", false},
		{"email", false},
		{"quantity", false},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, audit.IsSensitive(tt.field))
		})
	}
}

/*
TestStatusFor verifies only 2xx responses count as successes.
*/
func TestStatusFor(t *testing.T) {
	assert.Equal(t, audit.StatusSuccess, audit.StatusFor(200))
	assert.Equal(t, audit.StatusSuccess, audit.StatusFor(204))
	assert.Equal(t, audit.StatusFailure, audit.StatusFor(302))
	assert.Equal(t, audit.StatusFailure, audit.StatusFor(403))
	assert.Equal(t, audit.StatusFailure, audit.StatusFor(500))
}
