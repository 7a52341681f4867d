package ingest

import (
	"strings"

	"github.com/nhle/inbox/internal/model"
)

// Token maps an identity to a single NATS subject token. Bytes outside
// [A-Za-z0-9-] are written as '_' plus two upper-case hex digits, so '_'
// itself is escaped and distinct identities never share a token.
func Token(identity string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(identity))
	for i := 0; i < len(identity); i++ {
		c := identity[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0F])
		}
	}
	return b.String()
}

// Subject returns the subject a notification of category c for identity is
// published on.
func Subject(prefix, identity string, c model.Category) string {
	return prefix + "." + Token(identity) + "." + string(c)
}

// WildcardSubject matches every category for identity.
func WildcardSubject(prefix, identity string) string {
	return prefix + "." + Token(identity) + ".*"
}

// categoryOf returns the last token of subject as a category.
func categoryOf(subject string) (model.Category, error) {
	tok := subject
	if i := strings.LastIndexByte(subject, '.'); i >= 0 {
		tok = subject[i+1:]
	}
	return model.ParseCategory(tok)
}
