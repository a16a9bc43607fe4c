package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLeadingInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"500", 500, true},
		{"500g", 500, true},
		{"  42 grams", 42, true},
		{"-3", -3, true},
		{"+7", 7, true},
		{"", 0, false},
		{"g500", 0, false},
		{"-", 0, false},
		{"12.9", 12, true},
	}
	for _, tt := range tests {
		got, ok := ParseLeadingInt(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestFirstSegment(t *testing.T) {
	assert.Equal(t, "/img/a.jpg", FirstSegment("/img/a.jpg,/img/b.jpg"))
	assert.Equal(t, "/img/a.jpg", FirstSegment(" /img/a.jpg "))
	assert.Equal(t, "", FirstSegment(""))
	assert.Equal(t, "", FirstSegment(",/img/b.jpg"))
}

func TestSplitTrim(t *testing.T) {
	assert.Equal(t, []string{"stickers", "prints"}, SplitTrim(" stickers, ,prints ", ","))
	assert.Nil(t, SplitTrim("", ","))
}

func TestUUIDint64Unique(t *testing.T) {
	seen := make(map[int64]struct{})
	for i := 0; i < 1000; i++ {
		id := UUIDint64()
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestIfEmptyStr(t *testing.T) {
	assert.Equal(t, NA, IfEmptyStr("  ", NA))
	assert.Equal(t, "x", IfEmptyStr("x", NA))
}
