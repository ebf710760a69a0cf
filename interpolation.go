package req

import (
	"regexp"
	"sort"
	"strings"
)

// placeholderPattern matches `${name}`, `$name` and their `$$`-escaped forms.
var placeholderPattern = regexp.MustCompile(`(\$)?\$(?:\{([^}]+)\}|([[:alnum:]]+))`)

// LookupFunc returns the value for a placeholder name or an error if it cannot be provided.
type LookupFunc func(name string) (string, error)

type segmentKind int

const (
	segmentLiteral segmentKind = iota
	segmentRef
)

// segment is one piece of a scanned template: literal text (escapes already unwrapped) or a reference.
type segment struct {
	kind segmentKind
	text string
}

// scan splits s into literal and reference segments in a single left-to-right pass.
func scan(s string) []segment {
	matches := placeholderPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return []segment{{kind: segmentLiteral, text: s}}
	}

	segments := make([]segment, 0, len(matches)*2+1)
	ix := 0
	for _, m := range matches {
		if m[0] > ix {
			segments = append(segments, segment{kind: segmentLiteral, text: s[ix:m[0]]})
		}
		switch {
		case m[2] >= 0:
			// escaped: drop the leading `$` and keep the placeholder text as is
			segments = append(segments, segment{kind: segmentLiteral, text: s[m[0]+1 : m[1]]})
		case m[4] >= 0:
			segments = append(segments, segment{kind: segmentRef, text: s[m[4]:m[5]]})
		default:
			segments = append(segments, segment{kind: segmentRef, text: s[m[6]:m[7]]})
		}
		ix = m[1]
	}
	if ix < len(s) {
		segments = append(segments, segment{kind: segmentLiteral, text: s[ix:]})
	}
	return segments
}

// Interpolate replaces every placeholder in s with the value returned by lookup.
// Text outside placeholders is preserved verbatim, and `$${x}` renders as the literal `${x}`.
func Interpolate(s string, lookup LookupFunc) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, seg := range scan(s) {
		if seg.kind == segmentLiteral {
			b.WriteString(seg.text)
			continue
		}
		v, err := lookup(seg.text)
		if err != nil {
			return "", err
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// Context is a fully resolved set of named values. It is immutable once built.
type Context struct {
	values map[string]string
}

type resolveStatus int

const (
	statusUnvisited resolveStatus = iota
	statusInProgress
	statusDone
)

// frame is one pending resolution on the explicit DFS stack.
type frame struct {
	name     string
	segments []segment
	next     int
	out      strings.Builder
}

// NewContext resolves every entry of values against the others. Entries may reference names
// defined anywhere in the map. It fails with a circular reference error if any entry takes part
// in a cycle, or with a value-not-found error if an entry references an undefined name.
func NewContext(values map[string]string) (*Context, error) {
	status := make(map[string]resolveStatus, len(values))
	resolved := make(map[string]string, len(values))

	for _, root := range sortedKeys(values) {
		if status[root] == statusDone {
			continue
		}
		status[root] = statusInProgress
		stack := []*frame{{name: root, segments: scan(values[root])}}

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			pushed := false
			for top.next < len(top.segments) && !pushed {
				seg := top.segments[top.next]
				if seg.kind == segmentLiteral {
					top.out.WriteString(seg.text)
					top.next++
					continue
				}
				raw, ok := values[seg.text]
				if !ok {
					return nil, valueNotFound(seg.text)
				}
				switch status[seg.text] {
				case statusDone:
					top.out.WriteString(resolved[seg.text])
					top.next++
				case statusInProgress:
					return nil, circularReference(seg.text)
				default:
					status[seg.text] = statusInProgress
					stack = append(stack, &frame{name: seg.text, segments: scan(raw)})
					pushed = true
				}
			}
			if pushed {
				continue
			}
			resolved[top.name] = top.out.String()
			status[top.name] = statusDone
			stack = stack[:len(stack)-1]
		}
	}

	return &Context{values: resolved}, nil
}

// Lookup returns the resolved value for name.
func (c *Context) Lookup(name string) (string, error) {
	if c != nil {
		if v, ok := c.values[name]; ok {
			return v, nil
		}
	}
	return "", valueNotFound(name)
}

// Interpolate substitutes placeholders in s with values from the context.
func (c *Context) Interpolate(s string) (string, error) {
	return Interpolate(s, c.Lookup)
}

// Values returns a copy of the resolved values.
func (c *Context) Values() map[string]string {
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
