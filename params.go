package macauth

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Scheme is the authentication scheme token carried by the Authorization
// header.
const Scheme = "MAC"

// Params is a parsed credential header: a scheme token and its key=value
// parameters.
type Params struct {
	Scheme string
	Attrs  map[string]string
}

// ID returns the claimed MAC id, or "" when absent.
func (p Params) ID() string { return p.Attrs["id"] }

// Nonce returns the request nonce, or "" when absent.
func (p Params) Nonce() string { return p.Attrs["nonce"] }

// MAC returns the base64 signature value, or "" when absent.
func (p Params) MAC() string { return p.Attrs["mac"] }

// Ext returns the optional extension value, or "" when absent.
func (p Params) Ext() string { return p.Attrs["ext"] }

// Timestamp parses the ts parameter as decimal integer seconds.
func (p Params) Timestamp() (time.Time, error) {
	raw, ok := p.Attrs["ts"]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: ts", ErrMissingParameter)
	}

	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: ts=%q", ErrInvalidParameter, raw)
	}

	return time.Unix(sec, 0), nil
}

// paramOrder fixes the serialization order of the well-known parameters.
// Any remaining parameters follow in sorted order.
var paramOrder = []string{"id", "ts", "nonce", "ext", "mac"}

// String serializes the parameters back into a header value:
// `MAC id="...", ts="...", nonce="...", mac="..."`. All values are
// double-quoted with backslash-escaped quotes and backslashes.
func (p Params) String() string {
	var b strings.Builder
	b.WriteString(p.Scheme)

	written := make(map[string]bool, len(p.Attrs))

	write := func(key, value string) {
		if len(written) == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}

		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(quoteValue(value))
		written[key] = true
	}

	for _, key := range paramOrder {
		if value, ok := p.Attrs[key]; ok {
			write(key, value)
		}
	}

	var rest []string
	for key := range p.Attrs {
		if !written[key] {
			rest = append(rest, key)
		}
	}

	slices.Sort(rest)

	for _, key := range rest {
		write(key, p.Attrs[key])
	}

	return b.String()
}

// quoteValue produces a double-quoted parameter value. Only backslash and
// double-quote are escaped.
func quoteValue(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '\\' || ch == '"' {
			b.WriteByte('\\')
		}

		b.WriteByte(ch)
	}

	b.WriteByte('"')

	return b.String()
}

// parseState enumerates the states of the parameter list parser.
type parseState int

const (
	stateKey parseState = iota
	stateAwaitValue
	stateUnquotedValue
	stateQuotedValue
	stateQuotedEscape
	stateSeparator
)

// ParseAuthHeader parses an Authorization-style credential header value:
// a scheme token followed by a comma-separated key=value list. Values may
// be bare tokens or double-quoted strings with backslash-escaped
// characters; quoted values may contain commas.
//
// All failures wrap ErrMalformedHeader: empty or whitespace-only input, a
// scheme token with no parameters, an unterminated quote, an unescaped
// quote inside a value, and stray or duplicated commas.
func ParseAuthHeader(value string) (Params, error) {
	if strings.TrimSpace(value) == "" {
		return Params{}, fmt.Errorf("%w: empty header", ErrMalformedHeader)
	}

	scheme, rest, ok := strings.Cut(value, " ")
	if !ok || strings.TrimSpace(rest) == "" {
		return Params{}, fmt.Errorf("%w: scheme without parameters", ErrMalformedHeader)
	}

	attrs, err := parseParamList(rest)
	if err != nil {
		return Params{}, err
	}

	return Params{Scheme: scheme, Attrs: attrs}, nil
}

// parseParamList runs the finite-state parser over the key=value list that
// follows the scheme token.
func parseParamList(s string) (map[string]string, error) {
	attrs := make(map[string]string)
	state := stateKey

	var key, value strings.Builder

	flush := func() {
		attrs[key.String()] = value.String()
		key.Reset()
		value.Reset()
	}

	for i := 0; i < len(s); i++ {
		ch := s[i]

		switch state {
		case stateKey:
			switch ch {
			case '=':
				if key.Len() == 0 {
					return nil, fmt.Errorf("%w: parameter with empty name", ErrMalformedHeader)
				}

				state = stateAwaitValue

			case ',':
				return nil, fmt.Errorf("%w: stray comma in parameter list", ErrMalformedHeader)

			case ' ':
				if key.Len() != 0 {
					return nil, fmt.Errorf("%w: space inside parameter name", ErrMalformedHeader)
				}

			default:
				key.WriteByte(ch)
			}

		case stateAwaitValue:
			switch ch {
			case '"':
				state = stateQuotedValue

			case ',':
				flush()
				state = stateKey

			case ' ':
				return nil, fmt.Errorf("%w: space before parameter value", ErrMalformedHeader)

			default:
				value.WriteByte(ch)
				state = stateUnquotedValue
			}

		case stateUnquotedValue:
			switch ch {
			case ',':
				flush()
				state = stateKey

			case '"':
				return nil, fmt.Errorf("%w: quote inside unquoted value", ErrMalformedHeader)

			case ' ':
				flush()
				state = stateSeparator

			default:
				value.WriteByte(ch)
			}

		case stateQuotedValue:
			switch ch {
			case '\\':
				state = stateQuotedEscape

			case '"':
				flush()
				state = stateSeparator

			default:
				value.WriteByte(ch)
			}

		case stateQuotedEscape:
			value.WriteByte(ch)
			state = stateQuotedValue

		case stateSeparator:
			switch ch {
			case ',':
				state = stateKey

			case ' ':

			default:
				return nil, fmt.Errorf("%w: unexpected %q after parameter value", ErrMalformedHeader, ch)
			}
		}
	}

	switch state {
	case stateKey:
		if key.Len() != 0 {
			return nil, fmt.Errorf("%w: parameter without value", ErrMalformedHeader)
		}

		return nil, fmt.Errorf("%w: trailing comma in parameter list", ErrMalformedHeader)

	case stateAwaitValue, stateUnquotedValue:
		flush()

	case stateQuotedValue, stateQuotedEscape:
		return nil, fmt.Errorf("%w: unterminated quoted value", ErrMalformedHeader)
	}

	return attrs, nil
}

// RequestParams parses the Authorization header of r. The boolean result
// is false when the header is absent or malformed, letting callers fall
// back to a default instead of handling a parse error.
func RequestParams(r *http.Request) (Params, bool) {
	params, err := ParseAuthHeader(r.Header.Get("Authorization"))
	if err != nil {
		return Params{}, false
	}

	return params, true
}
