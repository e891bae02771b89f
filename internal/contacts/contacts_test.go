package contacts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsContact(t *testing.T) {
	checker := NewChecker([]string{
		"Friend@Example.com",
		"family.example",
		"  ",
	}, zap.NewNop())

	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{"exact address", "friend@example.com", true},
		{"address is case-insensitive", "FRIEND@EXAMPLE.COM", true},
		{"domain entry matches any mailbox", "anyone@family.example", true},
		{"unknown address", "stranger@example.com", false},
		{"unknown domain", "anyone@other.example", false},
		{"malformed address", "not-an-address", false},
		{"empty address", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checker.IsContact(tt.address))
		})
	}
}

func TestEmptyChecker(t *testing.T) {
	checker := NewChecker(nil, zap.NewNop())
	assert.False(t, checker.IsContact("anyone@anywhere.example"))
}
