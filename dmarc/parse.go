package dmarc

import (
	"fmt"
	"strconv"
	"strings"
)

// parseErr is an internal parsing error.
type parseErr string

func (e parseErr) Error() string {
	return string(e)
}

// ParseRecord parses a DMARC TXT record string.
//
// Fields and values that are case-insensitive in DMARC are returned in lower
// case for easy comparison. Tags that do not affect BIMI eligibility (rua,
// ruf, adkim, aspf, ri, fo, rf and unknown tags) are validated loosely and
// discarded.
//
// Returns the parsed record, whether the string looks like a DMARC record
// (starts with "v=DMARC1"), and any parsing error.
func ParseRecord(s string) (record *Record, isDMARC bool, rerr error) {
	defer func() {
		x := recover()
		if x == nil {
			return
		}
		if err, ok := x.(parseErr); ok {
			rerr = err
			return
		}
		panic(x)
	}()

	r := DefaultRecord
	p := newParser(s)

	// v= is required and must be first per RFC 7489 Section 6.3
	p.xtake("v")
	p.wsp()
	p.xtake("=")
	p.wsp()
	r.Version = p.xtakecase("DMARC1")
	p.wsp()
	p.xtake(";")
	isDMARC = true

	seen := map[string]bool{}

	for {
		p.wsp()
		if p.empty() {
			break
		}

		tagName := p.xword()
		tag := strings.ToLower(tagName)

		if seen[tag] {
			// RFC does not explicitly forbid duplicates, but they can only
			// cause confusion, so we reject them.
			p.xerrorf("duplicate tag %q", tagName)
		}
		seen[tag] = true

		p.wsp()
		p.xtake("=")
		p.wsp()

		switch tag {
		case "p":
			// Policy must be the first tag after version (RFC 7489 Section 6.3)
			if len(seen) != 1 {
				p.xerrorf("p= (policy) must be first tag")
			}
			r.Policy = Policy(p.xtakelist("none", "quarantine", "reject"))

		case "sp":
			sp := p.xkeyword()
			r.SubdomainPolicy = Policy(sp)
			// Validate later

		case "pct":
			r.Percentage = p.xnumber()
			if r.Percentage > 100 {
				p.xerrorf("bad percentage %d", r.Percentage)
			}

		default:
			// Tags we don't retain, and unknown tags. RFC 7489 implies we
			// should be able to parse past them. Consume until the next
			// semicolon or end, but require a non-empty value.
			n := 0
			for !p.empty() {
				if p.peek(';') {
					break
				}
				p.xtaken(1)
				n++
			}
			if n == 0 {
				p.xerrorf("missing value for tag %q", tagName)
			}
		}

		p.wsp()
		if !p.take(";") && !p.empty() {
			p.xerrorf("expected ;")
		}
	}

	// Validate required fields and subdomain policy
	sp := r.SubdomainPolicy
	if !seen["p"] || sp != PolicyEmpty && sp != PolicyNone && sp != PolicyQuarantine && sp != PolicyReject {
		// Per RFC 7489 Section 6.6.3, if p= is invalid but rua= is present,
		// treat as p=none.
		if seen["rua"] {
			r.Policy = PolicyNone
			r.SubdomainPolicy = PolicyEmpty
		} else {
			p.xerrorf("invalid (subdomain)policy and no aggregate reporting address")
		}
	}

	return &r, true, nil
}

// parser holds state for parsing DMARC records.
type parser struct {
	s     string // Original string
	lower string // Lower-cased string for case-insensitive matching
	o     int    // Current offset
}

// toLower lower-cases ASCII A-Z without affecting other bytes.
func toLower(s string) string {
	r := []byte(s)
	for i, c := range r {
		if c >= 'A' && c <= 'Z' {
			r[i] = c + 0x20
		}
	}
	return string(r)
}

func newParser(s string) *parser {
	return &parser{
		s:     s,
		lower: toLower(s),
	}
}

func (p *parser) xerrorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.o < len(p.s) {
		msg += fmt.Sprintf(" (remain %q)", p.s[p.o:])
	}
	panic(parseErr(msg))
}

func (p *parser) empty() bool {
	return p.o >= len(p.s)
}

func (p *parser) peek(b byte) bool {
	return p.o < len(p.s) && p.s[p.o] == b
}

// prefix returns true if the remaining string starts with s (case-insensitive).
func (p *parser) prefix(s string) bool {
	return strings.HasPrefix(p.lower[p.o:], s)
}

func (p *parser) take(s string) bool {
	if p.prefix(s) {
		p.o += len(s)
		return true
	}
	return false
}

func (p *parser) xtaken(n int) string {
	r := p.lower[p.o : p.o+n]
	p.o += n
	return r
}

func (p *parser) xtake(s string) string {
	if !p.prefix(s) {
		p.xerrorf("expected %q", s)
	}
	return p.xtaken(len(s))
}

// xtakecase takes an exact-case string.
func (p *parser) xtakecase(s string) string {
	if !strings.HasPrefix(p.s[p.o:], s) {
		p.xerrorf("expected %q", s)
	}
	r := p.s[p.o : p.o+len(s)]
	p.o += len(s)
	return r
}

// wsp consumes optional whitespace.
func (p *parser) wsp() {
	for !p.empty() && (p.s[p.o] == ' ' || p.s[p.o] == '\t') {
		p.o++
	}
}

// xtakelist takes one of the strings in the list.
func (p *parser) xtakelist(l ...string) string {
	for _, s := range l {
		if p.prefix(s) {
			return p.xtaken(len(s))
		}
	}
	p.xerrorf("expected one of %v", l)
	panic("not reached")
}

func (p *parser) xtakefn1case(fn func(byte, int) bool) string {
	for i, b := range []byte(p.lower[p.o:]) {
		if !fn(b, i) {
			if i == 0 {
				p.xerrorf("expected at least one char")
			}
			return p.xtaken(i)
		}
	}
	if p.empty() {
		p.xerrorf("expected at least 1 char")
	}
	r := p.s[p.o:]
	p.o += len(r)
	return r
}

// xword parses a tag name (alphanumeric).
func (p *parser) xword() string {
	return p.xtakefn1case(func(c byte, _ int) bool {
		return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
	})
}

func (p *parser) xdigits() string {
	return p.xtakefn1case(func(b byte, _ int) bool {
		return isdigit(b)
	})
}

func (p *parser) xnumber() int {
	digits := p.xdigits()
	v, err := strconv.Atoi(digits)
	if err != nil {
		p.xerrorf("parsing %q: %s", digits, err)
	}
	return v
}

// xkeyword parses an SMTP-style keyword.
func (p *parser) xkeyword() string {
	n := len(p.s) - p.o
	return p.xtakefn1case(func(b byte, i int) bool {
		return isalphadigit(b) || (b == '-' && i < n-1 && isalphadigit(p.s[p.o+i+1]))
	})
}

func isdigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isalpha(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func isalphadigit(b byte) bool {
	return isdigit(b) || isalpha(b)
}
