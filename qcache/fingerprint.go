// Package qcache implements the TTL+LRU result cache described in §4.14:
// entries keyed by a stable hash of the normalized query text, table-
// granular invalidation, and entry-count/byte-count capacity bounds.
package qcache

import (
	"strconv"
	"strings"

	"github.com/lyradb/lyradb/internal/hash"
	"github.com/lyradb/lyradb/sql/lexer"
)

// Normalize reduces src to the canonical form §4.14 hashes: re-tokenized,
// whitespace collapsed to single spaces between tokens, keywords folded to
// upper case, every other token (identifiers, string/number literals) left
// exactly as written since SQL string literals and (depending on the
// backing table) identifiers are case-sensitive. Falls back to a simple
// trim+collapse of src if it doesn't lex cleanly, since fingerprinting
// must never fail a query that will itself fail more informatively at
// parse time.
func Normalize(src string) string {
	toks, err := lexer.New(src).All()
	if err != nil {
		return collapseWhitespace(strings.TrimSpace(src))
	}

	var b strings.Builder
	for i, t := range toks {
		if t.Kind == lexer.EOF {
			break
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		if t.Kind == lexer.Keyword {
			b.WriteString(strings.ToUpper(t.Text))
		} else if t.Kind == lexer.String {
			b.WriteByte('\'')
			b.WriteString(t.Text)
			b.WriteByte('\'')
		} else {
			b.WriteString(t.Text)
		}
	}

	return b.String()
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)

	return strings.Join(fields, " ")
}

// Fingerprint is the stable cache key for a query: the xxHash64 of its
// normalized text (§4.14's "Keys queries by a stable hash of the
// normalized query text").
type Fingerprint uint64

// FingerprintOf computes the Fingerprint of sql's normalized text.
func FingerprintOf(sql string) Fingerprint {
	return Fingerprint(hash.ID(Normalize(sql)))
}

// String renders fp as a stable map/singleflight key.
func (fp Fingerprint) String() string {
	return strconv.FormatUint(uint64(fp), 36)
}
