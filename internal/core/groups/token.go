package groups

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/ecsrx/internal/core/models"
)

// Token is an immutable group predicate: a set of required component types
// within a scope. Two tokens with the same scope and the same type set are
// equal and hash identically, whatever order the types were given in.
type Token struct {
	scope string
	types []models.ComponentType
	hash  uint64
}

// NewToken builds a token. Duplicate types are collapsed. An empty type list
// yields a token matching every entity of the scope.
func NewToken(scope string, types ...models.ComponentType) (Token, error) {
	if strings.TrimSpace(scope) == "" {
		return Token{}, ErrInvalidScope
	}
	if strings.ContainsFunc(scope, isControl) {
		return Token{}, fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}

	sorted := slices.Clone(types)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	return Token{
		scope: scope,
		types: sorted,
		hash:  hashToken(scope, sorted),
	}, nil
}

// MustToken is NewToken for statically known scopes.
func MustToken(scope string, types ...models.ComponentType) Token {
	t, err := NewToken(scope, types...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Token) Scope() string { return t.scope }

// Types returns the required types in ascending order.
func (t Token) Types() []models.ComponentType { return slices.Clone(t.types) }

func (t Token) Hash() uint64 { return t.hash }

func (t Token) IsZero() bool { return t.scope == "" }

// Matches reports whether e currently carries every required type. It reads
// the live entity state on each call.
func (t Token) Matches(e models.Entity) bool {
	if e == nil {
		return false
	}
	for _, ct := range t.types {
		if !e.HasComponent(ct) {
			return false
		}
	}
	return true
}

func (t Token) Equal(o Token) bool {
	return t.hash == o.hash && t.scope == o.scope && slices.Equal(t.types, o.types)
}

func (t Token) String() string {
	parts := make([]string, len(t.types))
	for i, ct := range t.types {
		parts[i] = fmt.Sprint(uint32(ct))
	}
	return t.scope + "[" + strings.Join(parts, ",") + "]"
}

func hashToken(scope string, types []models.ComponentType) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(scope)
	buf := make([]byte, 1, 1+4*len(types))
	for _, ct := range types {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(ct))
	}
	_, _ = d.Write(buf)
	return d.Sum64()
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}
