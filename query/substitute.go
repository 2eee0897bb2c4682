package query

import (
	"fmt"
	"regexp"
	"strings"
)

// Substitute replaces every {name} / {@name} placeholder with the
// matching parameter's quoted literal. Keys are case-sensitive and a
// leading '@' on the key or the placeholder is ignored. Scalars become
// a single quoted literal, lists a parenthesized comma-joined list.
// Unmatched placeholders are left untouched. The template is scanned
// exactly once, so placeholders inside substituted values stay
// literal.
//
// This is textual splicing, not driver-level parameter binding: values
// are quote-escaped, but templates must still come from trusted
// authors only.
func Substitute(template string, params map[string]any) string {
	if len(params) == 0 {
		return template
	}

	names := make([]string, 0, len(params))
	literals := make(map[string]string, len(params))
	for key, value := range params {
		name := strings.TrimPrefix(key, "@")
		names = append(names, regexp.QuoteMeta(name))
		literals[name] = literal(value)
	}

	pattern := regexp.MustCompile(`\{\s*@?(` + strings.Join(names, "|") + `)\s*\}`)
	return pattern.ReplaceAllStringFunc(template, func(match string) string {
		name := pattern.FindStringSubmatch(match)[1]
		return literals[name]
	})
}

func literal(value any) string {
	switch v := value.(type) {
	case nil:
		return "''"
	case []string:
		quoted := make([]string, len(v))
		for i, item := range v {
			quoted[i] = quote(item)
		}
		return "(" + strings.Join(quoted, ",") + ")"
	case []any:
		quoted := make([]string, len(v))
		for i, item := range v {
			quoted[i] = quote(fmt.Sprint(item))
		}
		return "(" + strings.Join(quoted, ",") + ")"
	default:
		return quote(fmt.Sprint(v))
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// SplitStatements breaks a multi-statement template on ';'. Empty
// segments are dropped.
func SplitStatements(template string) []string {
	parts := strings.Split(template, ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		if stmt := strings.TrimSpace(part); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
