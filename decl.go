package extprefs

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// Statement names understood by the declaration format.
const (
	// FuncPref declares a default value.
	FuncPref = "pref"
	// FuncUserPref records a user override, as found in a profile's prefs file.
	FuncUserPref = "user_pref"
)

// Declaration is one parsed statement of a prefs declaration file, e.g.
//
//	pref("extensions.autoproxy2.enabled", true);
type Declaration struct {
	Func  string
	Key   string
	Value Value
	// Line is the 1-based source line, or 0 for declarations not read from a file.
	Line int
}

// ParseDeclarations reads a declaration file. Blank lines and lines starting with //
// are skipped, and a // comment may follow a statement. Errors wrap ErrSyntax and name
// the offending line.
func ParseDeclarations(r io.Reader) ([]Declaration, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var decls []Declaration
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		text = strings.TrimSpace(text)
		if text == "" || strings.HasPrefix(text, "//") {
			continue
		}

		d, err := parseStatement(text)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, line, err)
		}
		d.Line = line
		decls = append(decls, d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read declarations: %w", err)
	}
	return decls, nil
}

// Load parses a defaults file into a Registry. Only pref() statements are allowed and
// every key must be declared once.
func Load(r io.Reader) (*Registry, error) {
	decls, err := ParseDeclarations(r)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int, len(decls))
	entries := make([]Entry, 0, len(decls))
	for _, d := range decls {
		if d.Func != FuncPref {
			return nil, fmt.Errorf("%w: line %d: %s() is not allowed in a defaults file", ErrSyntax, d.Line, d.Func)
		}
		if prev, dup := seen[d.Key]; dup {
			return nil, fmt.Errorf("%w: %s declared on lines %d and %d", ErrDuplicateKey, d.Key, prev, d.Line)
		}
		seen[d.Key] = d.Line
		entries = append(entries, Entry{Key: d.Key, Default: d.Value})
	}
	return NewRegistry(entries...)
}

// WriteDeclarations writes one canonical statement per declaration. An empty Func is
// written as pref.
func WriteDeclarations(w io.Writer, decls []Declaration) (int64, error) {
	var total int64
	for _, d := range decls {
		fn := d.Func
		if fn == "" {
			fn = FuncPref
		}
		if d.Value.IsZero() {
			return total, fmt.Errorf("%w: %s has no value", ErrInvalidValue, d.Key)
		}
		n, err := io.WriteString(w, fn+"("+quoteJS(d.Key)+", "+d.Value.Literal()+");\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

var errUnterminated = errors.New("unterminated string")

// stmtParser scans a single statement line.
type stmtParser struct {
	src string
	pos int
}

func parseStatement(src string) (Declaration, error) {
	p := &stmtParser{src: src}

	fn := p.ident()
	if fn != FuncPref && fn != FuncUserPref {
		if fn == "" {
			return Declaration{}, fmt.Errorf("expected pref or user_pref, found %q", p.rest())
		}
		return Declaration{}, fmt.Errorf("unknown statement %q", fn)
	}
	if err := p.expect('('); err != nil {
		return Declaration{}, err
	}
	key, err := p.str()
	if err != nil {
		return Declaration{}, fmt.Errorf("key: %w", err)
	}
	if strings.TrimSpace(key) == "" {
		return Declaration{}, errors.New("empty key")
	}
	if err := p.expect(','); err != nil {
		return Declaration{}, err
	}
	v, err := p.value()
	if err != nil {
		return Declaration{}, fmt.Errorf("value of %s: %w", key, err)
	}
	if err := p.expect(')'); err != nil {
		return Declaration{}, err
	}
	if err := p.expect(';'); err != nil {
		return Declaration{}, err
	}
	p.skipSpace()
	if rest := p.rest(); rest != "" && !strings.HasPrefix(rest, "//") {
		return Declaration{}, fmt.Errorf("unexpected %q after statement", rest)
	}
	return Declaration{Func: fn, Key: key, Value: v}, nil
}

func (p *stmtParser) rest() string { return p.src[p.pos:] }

func (p *stmtParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *stmtParser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return fmt.Errorf("expected %q, found end of line", c)
	}
	if p.src[p.pos] != c {
		return fmt.Errorf("expected %q, found %q", c, p.src[p.pos])
	}
	p.pos++
	return nil
}

func (p *stmtParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || (p.pos > start && '0' <= c && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *stmtParser) value() (Value, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return Value{}, errors.New("missing value")
	}
	switch c := p.src[p.pos]; {
	case c == '"' || c == '\'':
		s, err := p.str()
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case c == '-' || c == '+' || ('0' <= c && c <= '9'):
		return p.integer()
	default:
		switch word := p.ident(); word {
		case "true":
			return BoolValue(true), nil
		case "false":
			return BoolValue(false), nil
		case "":
			return Value{}, fmt.Errorf("unexpected %q", c)
		default:
			return Value{}, fmt.Errorf("unsupported literal %q", word)
		}
	}
}

func (p *stmtParser) integer() (Value, error) {
	start := p.pos
	if c := p.src[p.pos]; c == '-' || c == '+' {
		p.pos++
	}
	digits := p.pos
	for p.pos < len(p.src) && '0' <= p.src[p.pos] && p.src[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == digits {
		return Value{}, fmt.Errorf("malformed number %q", p.src[start:p.pos])
	}
	if p.pos < len(p.src) && (p.src[p.pos] == '.' || p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		return Value{}, errors.New("only integer numbers are supported")
	}
	i, err := strconv.ParseInt(p.src[start:p.pos], 10, 64)
	if err != nil {
		return Value{}, fmt.Errorf("malformed number %q: %w", p.src[start:p.pos], err)
	}
	return IntValue(i), nil
}

// str reads a single- or double-quoted string literal with JavaScript escapes.
func (p *stmtParser) str() (string, error) {
	p.skipSpace()
	if p.pos >= len(p.src) || (p.src[p.pos] != '"' && p.src[p.pos] != '\'') {
		return "", errors.New("expected quoted string")
	}
	quote := p.src[p.pos]
	p.pos++

	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", errUnterminated
		}
		c := p.src[p.pos]
		p.pos++
		switch c {
		case quote:
			if !utf8.ValidString(b.String()) {
				return "", errors.New("string literal is not valid UTF-8")
			}
			return b.String(), nil
		case '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
		}
	}
}

func (p *stmtParser) escape(b *strings.Builder) error {
	if p.pos >= len(p.src) {
		return errUnterminated
	}
	e := p.src[p.pos]
	p.pos++
	switch e {
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0':
		b.WriteByte(0)
	case 'x':
		n, err := p.hex(2)
		if err != nil {
			return err
		}
		b.WriteRune(rune(n))
	case 'u':
		n, err := p.hex(4)
		if err != nil {
			return err
		}
		r := rune(n)
		if utf16.IsSurrogate(r) && strings.HasPrefix(p.rest(), `\u`) {
			save := p.pos
			p.pos += 2
			lo, err := p.hex(4)
			if err == nil {
				if combined := utf16.DecodeRune(r, rune(lo)); combined != unicode.ReplacementChar {
					b.WriteRune(combined)
					return nil
				}
			}
			p.pos = save
		}
		b.WriteRune(r)
	default:
		// \\, \", \', \/ and any other escaped character stand for themselves.
		b.WriteByte(e)
	}
	return nil
}

func (p *stmtParser) hex(n int) (uint64, error) {
	if p.pos+n > len(p.src) {
		return 0, errors.New("truncated escape sequence")
	}
	v, err := strconv.ParseUint(p.src[p.pos:p.pos+n], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad escape sequence %q", p.src[p.pos:p.pos+n])
	}
	p.pos += n
	return v, nil
}

// quoteJS renders s as a double-quoted string literal that ParseDeclarations reads back
// unchanged.
func quoteJS(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
