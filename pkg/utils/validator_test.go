package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("ops@workflow.example"))
	assert.NoError(t, ValidateEmail("first.last+tag@sub.domain.co"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("missing@tld"))
	assert.Error(t, ValidateEmail(""))
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ontario 31.05 workflow crm automated", "Ontario 31.05 workflow crm automated"},
		{"a/b\\c:d", "abcd"},
		{"  padded  ", "padded"},
		{"quo\"ted?*", "quoted"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFileName(tt.in))
	}
}
