package placeholder

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SyntaxError reports a placeholder that looks like one but cannot be
// parsed.
type SyntaxError struct {
	Text     string
	Position int
	Message  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("placeholder syntax error in '%s' at position %d: %s", e.Text, e.Position, e.Message)
}

// Codec reads and writes the textual placeholder form
//
//	${Key attr:"value", other:42, nested:{a:[1,2]}}
//
// The attribute body is a JSON object without the outer braces. Keys may
// be unquoted, strings may use single quotes, trailing commas are accepted
// and typographic quotes (as inserted by word processors) count as plain
// ones.
type Codec struct {
	Prefix string
	Suffix string
}

// DefaultCodec uses "${" and "}".
var DefaultCodec = Codec{Prefix: "${", Suffix: "}"}

func (c Codec) prefix() string {
	if c.Prefix == "" {
		return DefaultCodec.Prefix
	}
	return c.Prefix
}

func (c Codec) suffix() string {
	if c.Suffix == "" {
		return DefaultCodec.Suffix
	}
	return c.Suffix
}

// quoteClosers maps every opening quote to the quotes that close it.
// Word processors turn "x" into “x” or „x“ and 'x' into ‘x’.
var quoteClosers = map[rune]string{
	'"':  `"`,
	'\'': `'`,
	'“':  `”"`,
	'„':  `“”"`,
	'‘':  `’'`,
}

func isOpenQuote(r rune) bool {
	_, ok := quoteClosers[r]
	return ok
}

func closesQuote(open, r rune) bool {
	return strings.ContainsRune(quoteClosers[open], r)
}

func asciiQuote(open rune) rune {
	if open == '\'' || open == '‘' {
		return '\''
	}
	return '"'
}

// normalizeQuotes replaces typographic string delimiters by ASCII ones.
// The content of strings is copied unchanged.
func normalizeQuotes(s string) string {
	var (
		b    strings.Builder
		open rune
	)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case open == 0:
			if isOpenQuote(r) {
				open = r
				r = asciiQuote(r)
			}
		case r == '\\':
			b.WriteRune(r)
			i += size
			if i >= len(s) {
				continue
			}
			r, size = utf8.DecodeRuneInString(s[i:])
		case closesQuote(open, r):
			r = asciiQuote(open)
			open = 0
		}
		b.WriteRune(r)
		i += size
	}
	return b.String()
}

// Parse splits a full placeholder text into key and attributes.
func (c Codec) Parse(text string) (string, *Attributes, error) {
	p, s := c.prefix(), c.suffix()
	if !strings.HasPrefix(text, p) || !strings.HasSuffix(text, s) || len(text) < len(p)+len(s) {
		return "", nil, &SyntaxError{Text: text, Message: "missing delimiters"}
	}
	inner := strings.TrimSpace(text[len(p) : len(text)-len(s)])
	if inner == "" {
		return "", nil, &SyntaxError{Text: text, Position: len(p), Message: "empty placeholder"}
	}
	key, body := inner, ""
	if i := strings.IndexFunc(inner, unicode.IsSpace); i >= 0 {
		key, body = inner[:i], strings.TrimSpace(inner[i:])
	}
	attrs := NewAttributes()
	if body == "" {
		return key, attrs, nil
	}
	body = normalizeQuotes(body)
	pr := &parser{src: "{" + body + "}"}
	v, err := pr.value()
	if err == nil {
		pr.skipSpace()
		if pr.pos < len(pr.src) {
			err = pr.errorf("unexpected %q", pr.src[pr.pos:])
		}
	}
	if err != nil {
		if se, ok := err.(*SyntaxError); ok {
			se.Text = text
		}
		return "", nil, err
	}
	return key, v.(*Attributes), nil
}

// Format writes key and attrs back into placeholder text.
func (c Codec) Format(key string, attrs *Attributes) string {
	var b strings.Builder
	b.WriteString(c.prefix())
	b.WriteString(key)
	if attrs.Len() > 0 {
		b.WriteByte(' ')
		writeMembers(&b, attrs)
	}
	b.WriteString(c.suffix())
	return b.String()
}

// FormatValue renders a single attribute value.
func FormatValue(v any) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeMembers(b *strings.Builder, a *Attributes) {
	for i, k := range a.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		if bareKey(k) {
			b.WriteString(k)
		} else {
			writeString(b, k)
		}
		b.WriteByte(':')
		v, _ := a.Get(k)
		writeValue(b, v)
	}
}

func writeValue(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		b.WriteString("null")
	case string:
		writeString(b, x)
	case bool:
		b.WriteString(strconv.FormatBool(x))
	case int64:
		b.WriteString(strconv.FormatInt(x, 10))
	case int:
		b.WriteString(strconv.Itoa(x))
	case float64:
		s := strconv.FormatFloat(x, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		b.WriteString(s)
	case []any:
		b.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, item)
		}
		b.WriteByte(']')
	case *Attributes:
		b.WriteByte('{')
		writeMembers(b, x)
		b.WriteByte('}')
	default:
		writeString(b, fmt.Sprint(x))
	}
}

func writeString(b *strings.Builder, s string) {
	enc, _ := json.Marshal(s)
	b.Write(enc)
}

func bareKey(k string) bool {
	if k == "" {
		return false
	}
	for _, r := range k {
		if !isBareRune(r) {
			return false
		}
	}
	return true
}

func isBareRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_$*@-.#", r)
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Text: p.src, Position: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) value() (any, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == 0:
		return nil, p.errorf("unexpected end of input")
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == '"' || c == '\'':
		return p.quoted()
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		word := p.word()
		switch word {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		case "":
			return nil, p.errorf("unexpected %q", string(c))
		}
		return nil, p.errorf("unknown literal %q", word)
	}
}

func (p *parser) object() (any, error) {
	p.pos++ // {
	attrs := NewAttributes()
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return attrs, nil
		}
		var key string
		if c := p.peek(); c == '"' || c == '\'' {
			s, err := p.quoted()
			if err != nil {
				return nil, err
			}
			key = s.(string)
		} else {
			key = p.word()
			if key == "" {
				return nil, p.errorf("expected attribute name")
			}
		}
		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.errorf("expected ':' after %q", key)
		}
		p.pos++
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		attrs.Set(key, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
		default:
			return nil, p.errorf("expected ',' or '}'")
		}
	}
}

func (p *parser) array() (any, error) {
	p.pos++ // [
	items := []any{}
	for {
		p.skipSpace()
		if p.peek() == ']' {
			p.pos++
			return items, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
		default:
			return nil, p.errorf("expected ',' or ']'")
		}
	}
}

func (p *parser) quoted() (any, error) {
	quote := p.src[p.pos]
	start := p.pos
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if p.pos+1 >= len(p.src) {
				return nil, p.errorf("unterminated escape")
			}
			p.pos++
			switch e := p.src[p.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'u':
				if p.pos+4 >= len(p.src) {
					return nil, p.errorf("short unicode escape")
				}
				n, err := strconv.ParseUint(p.src[p.pos+1:p.pos+5], 16, 32)
				if err != nil {
					return nil, p.errorf("invalid unicode escape")
				}
				b.WriteRune(rune(n))
				p.pos += 4
			default:
				b.WriteByte(e)
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	p.pos = start
	return nil, p.errorf("unterminated string")
}

func (p *parser) number() (any, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	isFloat := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		if c == '.' || c == 'e' || c == 'E' || ((c == '-' || c == '+') && isFloat) {
			isFloat = true
			p.pos++
			continue
		}
		break
	}
	lit := p.src[start:p.pos]
	if !isFloat {
		if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return n, nil
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		p.pos = start
		return nil, p.errorf("invalid number %q", lit)
	}
	return f, nil
}

func (p *parser) word() string {
	start := p.pos
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !isBareRune(r) {
			break
		}
		p.pos += size
	}
	return p.src[start:p.pos]
}

// Find returns the byte ranges [start,end) of every placeholder in s.
// Braces nest and quoted strings may contain braces.
func (c Codec) Find(s string) [][2]int {
	var out [][2]int
	pre, suf := c.prefix(), c.suffix()
	nested := strings.HasSuffix(pre, "{") && suf == "}"
	for i := 0; i < len(s); {
		j := strings.Index(s[i:], pre)
		if j < 0 {
			break
		}
		start := i + j
		end := c.matchEnd(s, start+len(pre), nested)
		if end < 0 {
			i = start + len(pre)
			continue
		}
		out = append(out, [2]int{start, end})
		i = end
	}
	return out
}

func (c Codec) matchEnd(s string, from int, nested bool) int {
	suf := c.suffix()
	depth := 1
	var quote rune
	for i := from; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case quote != 0:
			if r == '\\' {
				i += size
				if i < len(s) {
					_, size = utf8.DecodeRuneInString(s[i:])
				}
			} else if closesQuote(quote, r) {
				quote = 0
			}
		case isOpenQuote(r):
			quote = r
		case nested && r == '{':
			depth++
		case nested && r == '}':
			depth--
			if depth == 0 {
				return i + size
			}
		case !nested && strings.HasPrefix(s[i:], suf):
			return i + len(suf)
		}
		i += size
	}
	return -1
}
