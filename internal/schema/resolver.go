package schema

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrMissingColumn is wrapped by every ResolutionError.
var ErrMissingColumn = errors.New("missing required column")

// ResolutionError reports a required logical field with no matching header.
type ResolutionError struct {
	Field      Field
	Candidates []string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%v %q: tried %q", ErrMissingColumn, e.Field, e.Candidates)
}

func (e *ResolutionError) Unwrap() error { return ErrMissingColumn }

// Resolver looks up logical fields in one input's header row.
//
// The only state is the normalized index built by NewResolver; Resolve does
// not mutate it, so a Resolver may be shared freely once constructed.
type Resolver struct {
	index map[string]string // normalized header -> original header
}

// NewResolver indexes headers by their normalized form. When two headers
// normalize to the same key the left-most one is kept.
func NewResolver(headers []string) *Resolver {
	idx := make(map[string]string, len(headers))
	for _, h := range headers {
		k := NormalizeHeader(h)
		if k == "" {
			continue
		}
		if _, dup := idx[k]; dup {
			continue
		}
		idx[k] = h
	}
	return &Resolver{index: idx}
}

// Resolve returns the original header of the first candidate present in the
// input. Candidates are compared in normalized form as well, so "Order ID"
// and "order id" are the same candidate.
func (r *Resolver) Resolve(field Field, candidates ...string) (string, error) {
	for _, c := range candidates {
		if orig, ok := r.index[NormalizeHeader(c)]; ok {
			return orig, nil
		}
	}
	return "", &ResolutionError{
		Field:      field,
		Candidates: append([]string(nil), candidates...),
	}
}

// ResolveAll resolves specs in order and stops at the first required field
// that cannot be matched. Optional misses are left out of the Mapping.
func (r *Resolver) ResolveAll(specs []FieldSpec) (Mapping, error) {
	m := make(Mapping, len(specs))
	for _, fs := range specs {
		col, err := r.Resolve(fs.Field, fs.Candidates...)
		if err != nil {
			if fs.Optional {
				continue
			}
			return nil, err
		}
		m[fs.Field] = col
	}
	return m, nil
}

// Resolve is a convenience for NewResolver(headers).ResolveAll(specs).
func Resolve(headers []string, specs []FieldSpec) (Mapping, error) {
	return NewResolver(headers).ResolveAll(specs)
}

// NormalizeHeader folds a header for comparison:
//  1. strip a UTF-8 BOM and surrounding whitespace
//  2. lowercase
//  3. strip accents (NFD → remove Mn → NFC)
//
// Inner spacing and separators are kept; candidate lists carry the
// space/underscore/dash variants explicitly.
func NormalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ToLower(strings.TrimSpace(s))
	if isASCII(s) {
		return s
	}
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
