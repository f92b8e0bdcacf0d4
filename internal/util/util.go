// Package util holds small string helpers shared by the module packages.
package util

import (
	"strings"
	"sync"
)

// LCase lower-cases s keeping its type.
func LCase[T ~string](s T) T { return T(strings.ToLower(string(s))) }

// TrimSP trims Unicode white space around s keeping its type.
func TrimSP[T ~string](s T) T { return T(strings.TrimSpace(string(s))) }

var strBldrPool = sync.Pool{
	New: func() any { return new(strings.Builder) },
}

// GetStringBuilder takes an empty builder from the pool.
// Only the builder value is reused: Reset drops the buffer on release,
// so the result of sb.String() stays valid after [FreeStringBuilder].
func GetStringBuilder() *strings.Builder {
	return strBldrPool.Get().(*strings.Builder) //nolint:forcetypeassert
}

// FreeStringBuilder resets sb and returns it to the pool.
func FreeStringBuilder(sb *strings.Builder) {
	sb.Reset()
	strBldrPool.Put(sb)
}
