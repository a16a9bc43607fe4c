package common

import (
	"strconv"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
	NA       = "N/A"
)

var (
	idNode     *snowflake.Node
	idNodeOnce sync.Once
)

// UUIDint64 returns a time-ordered 64-bit id.
func UUIDint64() int64 {
	idNodeOnce.Do(func() {
		node, err := snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
		idNode = node
	})
	return idNode.Generate().Int64()
}

// IfEmptyStr returns defval when src is blank.
func IfEmptyStr(src string, defval string) string {
	if strings.TrimSpace(src) == "" {
		return defval
	}
	return src
}

// ParseLeadingInt reads the integer prefix of s the way a lenient form parser
// would: leading blanks are skipped, an optional sign is honoured and parsing
// stops at the first non-digit ("500g" -> 500). ok is false when no digit was read.
func ParseLeadingInt(s string) (n int, ok bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}

// SplitTrim splits a comma separated list and drops blank entries.
func SplitTrim(src string, sep string) []string {
	var out []string
	for _, part := range strings.Split(src, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FirstSegment returns the first entry of a comma separated list as written,
// or "" when the first entry is empty.
func FirstSegment(src string) string {
	first, _, _ := strings.Cut(src, ",")
	return strings.TrimSpace(first)
}
