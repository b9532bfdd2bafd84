package cache

import (
	"fmt"
	"strings"
)

// Key joins a prefix and its parts with ':' ("stats:mega645:10").
func Key(prefix string, parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		b.WriteByte(':')
		fmt.Fprint(&b, p)
	}
	return b.String()
}

// Pattern matches every key under Key(prefix, parts...).
func Pattern(prefix string, parts ...interface{}) string {
	return Key(prefix, parts...) + ":*"
}
