// Package sanitize holds the pure input-cleaning helpers applied to every
// guest-supplied field before any external call is made.
//
// All helpers are fail-soft: invalid input yields an empty string, oversized
// input is truncated rather than rejected, and sanitizing an already-sanitized
// string is a no-op.
package sanitize

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	maxNameLength = 100
)

var (
	emailRe = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
	nameRe  = regexp.MustCompile(`^[\p{L}\p{M}' .\-]+$`)
)

type TextOptions struct {
	MaxLength     int
	AllowNewlines bool
	StripHTML     bool
}

// Text strips control characters and, optionally, HTML tag delimiters and
// newlines, then truncates to MaxLength runes. Tag delimiters are removed,
// not escaped; this is a hardening measure, not an HTML parser.
func Text(in string, opts TextOptions) string {
	var b strings.Builder
	b.Grow(len(in))

	for _, r := range in {
		switch {
		case r == '\n' || r == '\t':
			if r == '\n' && !opts.AllowNewlines {
				b.WriteRune(' ')
				continue
			}
			b.WriteRune(r)
		case unicode.IsControl(r):
			// drop
		case opts.StripHTML && (r == '<' || r == '>'):
			// drop
		default:
			b.WriteRune(r)
		}
	}

	s := b.String()
	if opts.MaxLength > 0 {
		runes := []rune(s)
		if len(runes) > opts.MaxLength {
			s = string(runes[:opts.MaxLength])
		}
	}

	return strings.TrimSpace(s)
}

// Name cleans a person's name. Anything outside letters, spaces, hyphens,
// apostrophes and periods makes the whole input invalid, yielding "".
func Name(in string) string {
	s := Text(in, TextOptions{MaxLength: maxNameLength, StripHTML: true})
	if s == "" || !nameRe.MatchString(s) {
		return ""
	}

	return s
}

// Email lowercases and validates an email address, yielding "" when invalid.
func Email(in string) string {
	s := strings.ToLower(strings.TrimSpace(in))
	if !emailRe.MatchString(s) {
		return ""
	}

	return s
}

// URL accepts absolute http(s) URLs only, yielding "" for anything else.
func URL(in string) string {
	s := strings.TrimSpace(in)
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}

	return s
}

// Field types understood by FormData.
const (
	TypeText   = "text"
	TypeName   = "name"
	TypeEmail  = "email"
	TypeURL    = "url"
	TypeNumber = "number"
)

// Field declares the constraints of one form field.
type Field struct {
	Type          string
	Required      bool
	MinLength     int
	MaxLength     int
	AllowNewlines bool
	Enum          []string
}

// Schema declares the fields of one activity form. Fields not declared in
// the schema are dropped from the output.
type Schema map[string]Field

// Result of validating a form against its schema.
type Result struct {
	Data   map[string]string
	Errors map[string]string
	Valid  bool
}

// FormData sanitizes every declared field and collects per-field errors.
// The returned Data contains the cleaned values for all declared fields,
// including the ones that failed validation.
func FormData(data map[string]string, schema Schema) Result {
	res := Result{
		Data:   make(map[string]string, len(schema)),
		Errors: make(map[string]string),
	}

	for name, f := range schema {
		clean := cleanField(data[name], f)
		res.Data[name] = clean

		if clean == "" {
			if f.Required {
				if data[name] == "" {
					res.Errors[name] = name + " is required"
				} else {
					res.Errors[name] = name + " is invalid"
				}
			}
			continue
		}

		if f.MinLength > 0 && len([]rune(clean)) < f.MinLength {
			res.Errors[name] = name + " must be at least " + strconv.Itoa(f.MinLength) + " characters"
			continue
		}

		if len(f.Enum) > 0 && !contains(f.Enum, clean) {
			res.Errors[name] = name + " must be one of: " + strings.Join(f.Enum, ", ")
		}
	}

	res.Valid = len(res.Errors) == 0
	return res
}

func cleanField(raw string, f Field) string {
	switch f.Type {
	case TypeName:
		return Name(raw)
	case TypeEmail:
		return Email(raw)
	case TypeURL:
		return URL(raw)
	case TypeNumber:
		s := strings.TrimSpace(raw)
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return ""
		}
		return s
	default:
		return Text(raw, TextOptions{
			MaxLength:     f.MaxLength,
			AllowNewlines: f.AllowNewlines,
			StripHTML:     true,
		})
	}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
