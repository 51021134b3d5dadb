package descriptor

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
	pstrings "github.com/ItsLhuis/mxt-sub001/pkg/platform/strings"
)

const dateLayout = "2006-01-02"

// Text tracks a required string. Blank values project to null and
// whitespace differences do not count as changes.
func Text[T any](key, label string, get func(*T) string) Descriptor[T] {
	return Descriptor[T]{
		Key:     key,
		Label:   label,
		Extract: func(e *T) any { return get(e) },
		Project: projectText,
		Equals:  equalText,
	}
}

// OptionalText tracks a nullable string. Null and blank are the same value.
func OptionalText[T any](key, label string, get func(*T) *string) Descriptor[T] {
	return Descriptor[T]{
		Key:     key,
		Label:   label,
		Extract: func(e *T) any { return get(e) },
		Project: projectText,
		Equals:  equalText,
	}
}

// Contact tracks a phone number or e-mail address. Phone formatting and
// e-mail case do not count as changes.
func Contact[T any](key, label string, get func(*T) string) Descriptor[T] {
	return Descriptor[T]{
		Key:     key,
		Label:   label,
		Extract: func(e *T) any { return get(e) },
		Project: projectText,
		Equals: func(a, b any) bool {
			return NormalizeContact(textOf(a)) == NormalizeContact(textOf(b))
		},
	}
}

// Relation tracks a reference to another record. It projects to
// {id, name} and compares by id only, so renaming the related record is not
// a change here.
func Relation[T any](key, label string, get func(*T) *domain.Ref) Descriptor[T] {
	return Descriptor[T]{
		Key:     key,
		Label:   label,
		Extract: func(e *T) any { return get(e) },
		Project: projectRef,
		Equals: func(a, b any) bool {
			return refID(a) == refID(b)
		},
	}
}

// RefList tracks a set of references. Order is kept for display but
// ignored when comparing.
func RefList[T any](key, label string, get func(*T) []domain.Ref) Descriptor[T] {
	return Descriptor[T]{
		Key:     key,
		Label:   label,
		Extract: func(e *T) any { return get(e) },
		Project: func(v any) any {
			refs, _ := v.([]domain.Ref)
			out := make([]any, 0, len(refs))
			for _, r := range refs {
				if p := projectRef(r); p != nil {
					out = append(out, p)
				}
			}
			return out
		},
		Equals: func(a, b any) bool {
			return sameSet(a, b, refID)
		},
	}
}

// StringList tracks a set of free-text entries. Blank and repeated entries
// are dropped; order and case are ignored when comparing.
func StringList[T any](key, label string, get func(*T) []string) Descriptor[T] {
	return Descriptor[T]{
		Key:     key,
		Label:   label,
		Extract: func(e *T) any { return get(e) },
		Project: func(v any) any {
			values, _ := v.([]string)
			clean := pstrings.DedupeFold(values)
			out := make([]any, 0, len(clean))
			for _, s := range clean {
				out = append(out, s)
			}
			return out
		},
		Equals: func(a, b any) bool {
			return sameSet(a, b, func(v any) string {
				return strings.ToLower(pstrings.CollapseSpace(textOf(v)))
			})
		},
	}
}

// Date tracks a calendar date. The zero time projects to null.
func Date[T any](key, label string, get func(*T) time.Time) Descriptor[T] {
	return Descriptor[T]{
		Key:     key,
		Label:   label,
		Extract: func(e *T) any { return get(e) },
		Project: func(v any) any {
			switch t := v.(type) {
			case time.Time:
				if t.IsZero() {
					return nil
				}
				return t.Format(dateLayout)
			case *time.Time:
				if t == nil || t.IsZero() {
					return nil
				}
				return t.Format(dateLayout)
			}
			return nil
		},
	}
}

// Number tracks an optional number. Non-finite values are kept as-is and
// fail serialization.
func Number[T any](key, label string, get func(*T) *float64) Descriptor[T] {
	return Descriptor[T]{
		Key:     key,
		Label:   label,
		Extract: func(e *T) any { return get(e) },
		Project: func(v any) any {
			switch n := v.(type) {
			case *float64:
				if n == nil {
					return nil
				}
				return *n
			case float64:
				return n
			case int:
				return float64(n)
			case int64:
				return float64(n)
			}
			return nil
		},
		Equals: func(a, b any) bool {
			fa, okA := a.(float64)
			fb, okB := b.(float64)
			if !okA || !okB {
				return a == nil && b == nil
			}
			if math.IsNaN(fa) || math.IsNaN(fb) {
				return false
			}
			return fa == fb
		},
	}
}

// Bool tracks a flag.
func Bool[T any](key, label string, get func(*T) bool) Descriptor[T] {
	return Descriptor[T]{
		Key:     key,
		Label:   label,
		Extract: func(e *T) any { return get(e) },
	}
}

// NormalizeContact reduces a contact value to the form used for
// comparison: e-mail addresses are lower-cased, phone numbers keep only
// digits and a leading plus, with a 00 prefix read as +.
func NormalizeContact(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.Contains(s, "@") {
		return strings.ToLower(s)
	}
	if !looksLikePhone(s) {
		return strings.ToLower(pstrings.CollapseSpace(s))
	}
	var b strings.Builder
	for i, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if rest, ok := strings.CutPrefix(out, "00"); ok {
		out = "+" + rest
	}
	return out
}

func looksLikePhone(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsSpace(r), strings.ContainsRune("+-().", r):
		default:
			return false
		}
	}
	return digits > 0
}

func projectText(v any) any {
	switch s := v.(type) {
	case nil:
		return nil
	case string:
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		return s
	case *string:
		if s == nil {
			return nil
		}
		return projectText(*s)
	default:
		return projectText(fmt.Sprint(v))
	}
}

func equalText(a, b any) bool {
	return pstrings.CollapseSpace(textOf(a)) == pstrings.CollapseSpace(textOf(b))
}

func textOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func projectRef(v any) any {
	var ref domain.Ref
	switch r := v.(type) {
	case domain.Ref:
		ref = r
	case *domain.Ref:
		if r == nil {
			return nil
		}
		ref = *r
	default:
		return nil
	}
	if ref.IsZero() {
		return nil
	}
	return map[string]any{"id": ref.ID.String(), "name": ref.Name}
}

func refID(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := m["id"].(string)
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return id
}

func sameSet(a, b any, identity func(any) string) bool {
	return slices.Equal(identities(a, identity), identities(b, identity))
}

func identities(v any, identity func(any) string) []string {
	items, _ := v.([]any)
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		id := identity(item)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
