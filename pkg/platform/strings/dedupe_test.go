package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := map[string]struct {
		in   []string
		want []string
	}{
		"nil stays nil":     {in: nil, want: nil},
		"empty stays empty": {in: []string{}, want: []string{}},
		"player ids are trimmed and deduplicated in first-seen order": {
			in:   []string{" 8f1c-player ", "a42e-player", "8f1c-player", "\t"},
			want: []string{"8f1c-player", "a42e-player"},
		},
		"only blanks": {in: []string{"", "   "}, want: []string{}},
		"case is significant": {
			in:   []string{"Abc", "abc"},
			want: []string{"Abc", "abc"},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrim(tt.in))
		})
	}
}

func TestTrimPtr(t *testing.T) {
	assert.Nil(t, TrimPtr(nil))

	v := "  Ravi  "
	got := TrimPtr(&v)
	assert.Equal(t, "Ravi", *got)
	assert.Equal(t, "  Ravi  ", v, "input is left untouched")

	blank := "   "
	assert.Equal(t, "", *TrimPtr(&blank), "blank stays a present but empty value")
}

func TestIsDigits(t *testing.T) {
	assert.True(t, IsDigits("9876543210"))
	assert.False(t, IsDigits(""))
	assert.False(t, IsDigits("+91987654"))
	assert.False(t, IsDigits("98 76"))
}
