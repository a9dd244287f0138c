package approx

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jward/treemerge/internal/ident"
	"github.com/jward/treemerge/internal/metadata"
)

// DefaultCacheSize bounds the number of normalized classifier names kept.
const DefaultCacheSize = 4096

// Signer renders type references into target-independent signatures.
//
// Classifier names repeat heavily across a library (every "kotlin/Int"
// parameter), so their normalized form is memoized in a bounded LRU.
// Signer is safe for concurrent use.
type Signer struct {
	classifiers *lru.Cache[string, string]
}

// NewSigner creates a Signer with the given cache size. Sizes below one
// fall back to DefaultCacheSize.
func NewSigner(size int) *Signer {
	if size < 1 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		panic("approx: lru cache: " + err.Error())
	}
	return &Signer{classifiers: cache}
}

// Signature renders t. scope maps the enclosing callable's type parameter
// names to their index; such references render by position so that renamed
// type parameters still match. Unknown type parameters (declared on an
// outer class) render by name.
//
// An abbreviated type renders as its abbreviation: an alias like size_t
// expands differently per target but is written the same everywhere.
func (s *Signer) Signature(t metadata.Type, scope map[string]int) string {
	var b strings.Builder
	s.write(&b, t, scope)
	return b.String()
}

func (s *Signer) write(b *strings.Builder, t metadata.Type, scope map[string]int) {
	if t.Abbreviation != nil {
		abbr := *t.Abbreviation
		abbr.Nullable = abbr.Nullable || t.Nullable
		s.write(b, abbr, scope)
		return
	}
	switch {
	case t.TypeParameter != "":
		if i, ok := scope[t.TypeParameter]; ok {
			b.WriteString("#")
			b.WriteString(strconv.Itoa(i))
		} else {
			b.WriteString("^")
			b.WriteString(t.TypeParameter)
		}
	case t.Classifier != "":
		b.WriteString(s.classifier(t.Classifier))
	default:
		b.WriteString("?unknown")
	}
	if len(t.Arguments) > 0 {
		b.WriteString("<")
		for i, arg := range t.Arguments {
			if i > 0 {
				b.WriteString(",")
			}
			switch {
			case arg.Star || arg.Type == nil:
				b.WriteString("*")
			default:
				if arg.Variance != "" && arg.Variance != "invariant" {
					b.WriteString(arg.Variance)
					b.WriteString(" ")
				}
				s.write(b, *arg.Type, scope)
			}
		}
		b.WriteString(">")
	}
	if t.Nullable {
		b.WriteString("?")
	}
}

// classifier normalizes a classifier name to the canonical "a/b/C.D" form.
func (s *Signer) classifier(raw string) string {
	if v, ok := s.classifiers.Get(raw); ok {
		return v
	}
	norm := raw
	if id, err := ident.ParseEntityID(raw); err == nil {
		norm = id.String()
	}
	s.classifiers.Add(raw, norm)
	return norm
}

// CacheLen reports how many classifier names are currently memoized.
func (s *Signer) CacheLen() int { return s.classifiers.Len() }
