package log

import (
	"fmt"
	"strings"
	"time"
)

// ParseTemplate renders a message template against positional arguments
// and extracts the named properties.
//
// Placeholders have the form {Name} or {Name:format}. Each occurrence
// consumes one argument in template order. The property map binds each
// clean name (text before the colon) to the original, unformatted
// argument value; the first occurrence of a repeated name wins. When the
// arguments run out, remaining placeholders stay in the message verbatim.
// Doubled braces are escapes: {{ renders a literal { and }} a literal },
// and neither consumes an argument.
//
// The function is pure: same template and arguments always produce the
// same message and properties.
func ParseTemplate(template string, args []interface{}) (string, Fields) {
	properties := make(Fields)
	if template == "" {
		return "", properties
	}
	if !strings.ContainsAny(template, "{}") {
		return template, properties
	}

	var b strings.Builder
	b.Grow(len(template))
	next := 0 // index of the next unconsumed argument

	for i := 0; i < len(template); {
		c := template[i]
		if (c == '{' || c == '}') && i+1 < len(template) && template[i+1] == c {
			b.WriteByte(c)
			i += 2
			continue
		}
		if c != '{' {
			b.WriteByte(c)
			i++
			continue
		}

		name, format, end, ok := scanPlaceholder(template, i)
		if !ok {
			b.WriteByte(c)
			i++
			continue
		}

		if next >= len(args) {
			// Arguments exhausted: keep the placeholder text as-is.
			b.WriteString(template[i:end])
			i = end
			continue
		}

		value := args[next]
		next++
		if _, seen := properties[name]; !seen {
			properties[name] = value
		}
		b.WriteString(renderValue(value, format))
		i = end
	}

	return b.String(), properties
}

// ExtractPropertyNames returns the clean placeholder names of a template
// in order of first occurrence.
func ExtractPropertyNames(template string) []string {
	var names []string
	seen := make(map[string]struct{})
	for i := 0; i < len(template); {
		if template[i] != '{' {
			i++
			continue
		}
		if i+1 < len(template) && template[i+1] == '{' {
			i += 2
			continue
		}
		name, _, end, ok := scanPlaceholder(template, i)
		if !ok {
			i++
			continue
		}
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			names = append(names, name)
		}
		i = end
	}
	return names
}

// scanPlaceholder scans a {Name} or {Name:format} placeholder beginning
// at start. It returns the clean name, the format suffix, and the index
// just past the closing brace. ok is false when the text at start is not
// a well-formed placeholder, in which case it must be treated as
// literal text.
func scanPlaceholder(template string, start int) (name, format string, end int, ok bool) {
	close := strings.IndexByte(template[start:], '}')
	if close < 0 {
		return "", "", 0, false
	}
	body := template[start+1 : start+close]
	end = start + close + 1

	name = body
	if colon := strings.IndexByte(body, ':'); colon >= 0 {
		name = body[:colon]
		format = body[colon+1:]
	}
	if !validPropertyName(name) {
		return "", "", 0, false
	}
	return name, format, end, true
}

func validPropertyName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

// renderValue renders a placeholder value according to its format suffix.
// "l" and "u" change the case of the rendered text only. A suffix
// starting with '%' is applied as a fmt verb, and any other suffix is
// used as a time layout for time.Time values; unsupported combinations
// fall back to the default rendering.
func renderValue(value interface{}, format string) string {
	switch format {
	case "":
		return fmt.Sprintf("%v", value)
	case "l":
		return strings.ToLower(fmt.Sprintf("%v", value))
	case "u":
		return strings.ToUpper(fmt.Sprintf("%v", value))
	}
	if strings.HasPrefix(format, "%") {
		rendered := fmt.Sprintf(format, value)
		if !strings.Contains(rendered, "%!") {
			return rendered
		}
		return fmt.Sprintf("%v", value)
	}
	if t, isTime := value.(time.Time); isTime {
		return t.Format(format)
	}
	return fmt.Sprintf("%v", value)
}
