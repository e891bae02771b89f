package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCanonicalizeSubject(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    string
	}{
		{
			name:    "lowercase and punctuation",
			subject: "Your Order: Shipped!",
			want:    "your order shipped",
		},
		{
			name:    "html tags and entities stripped",
			subject: "<b>Sale</b> ends &amp; more",
			want:    "sale ends more",
		},
		{
			name:    "whitespace collapsed",
			subject: "  weekly\t digest \n update ",
			want:    "weekly digest update",
		},
		{
			name:    "compatibility forms normalize",
			subject: "ﬁnal notice №42",
			want:    "final notice no42",
		},
		{
			name:    "empty subject",
			subject: "",
			want:    "",
		},
		{
			name:    "punctuation only",
			subject: "!!! --- ???",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalizeSubject(tt.subject))
		})
	}
}

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	short := tp.TruncateText("hello", 100)
	assert.Equal(t, "hello", short)

	long := tp.TruncateText(strings.Repeat("a", 200), 50)
	assert.True(t, strings.HasPrefix(long, strings.Repeat("a", 50)))
	assert.Contains(t, long, "truncated")

	// Truncation never splits a multibyte rune
	multibyte := tp.TruncateText("日本語テキスト", 4)
	assert.True(t, strings.HasPrefix(multibyte, "日"))
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "clean", tp.SanitizeUTF8("clean"))
	assert.Equal(t, "ab", tp.SanitizeUTF8("a\xffb"))
}
