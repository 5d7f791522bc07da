package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuffix(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{name: "long token", secret: "sk-abcdef1234", want: "1234"},
		{name: "exactly four", secret: "abcd", want: "abcd"},
		{name: "shorter than four", secret: "ab", want: "ab"},
		{name: "empty", secret: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Suffix(tt.secret))
		})
	}
}
