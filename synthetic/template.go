package synthetic

import (
	"bytes"
	"strings"

	"github.com/trusted-server/trusted-server/errortypes"
)

const (
	openDelimiter  = "{{"
	closeDelimiter = "}}"
)

// attributeFields maps template placeholder names to attribute accessors.
// This is the closed set of names a template may reference.
var attributeFields = map[string]func(Attributes) string{
	"client_ip":        func(a Attributes) string { return a.ClientIP },
	"user_agent":       func(a Attributes) string { return a.UserAgent },
	"first_party_id":   func(a Attributes) string { return a.FirstPartyID },
	"auth_user_id":     func(a Attributes) string { return a.AuthUserID },
	"publisher_domain": func(a Attributes) string { return a.PublisherDomain },
	"accept_language":  func(a Attributes) string { return a.AcceptLanguage },
}

// idTemplate is a pre-parsed identity template: the literal text around each
// placeholder plus an accessor per placeholder. Parsing up front keeps the
// per-request render allocation-light and moves all validation to startup.
type idTemplate struct {
	literals []string
	fields   []func(Attributes) string
}

// parseTemplate scans raw for {{name}} placeholders. Any name outside the
// attribute set, or an unterminated placeholder, is a configuration error:
// serving with a partial identity scheme is worse than refusing to start.
func parseTemplate(raw string) (*idTemplate, error) {
	tmpl := &idTemplate{}
	rest := raw
	for {
		start := strings.Index(rest, openDelimiter)
		if start == -1 {
			break
		}
		end := strings.Index(rest[start+len(openDelimiter):], closeDelimiter)
		if end == -1 {
			return nil, &errortypes.InvalidTemplate{
				Message: "identity template has an unterminated placeholder: " + rest[start:],
			}
		}

		name := rest[start+len(openDelimiter) : start+len(openDelimiter)+end]
		field, ok := attributeFields[strings.TrimSpace(name)]
		if !ok {
			return nil, &errortypes.InvalidTemplate{
				Message: "identity template references unknown attribute " + strings.TrimSpace(name),
			}
		}

		tmpl.literals = append(tmpl.literals, rest[:start])
		tmpl.fields = append(tmpl.fields, field)
		rest = rest[start+len(openDelimiter)+end+len(closeDelimiter):]
	}
	tmpl.literals = append(tmpl.literals, rest)
	return tmpl, nil
}

// render substitutes the attribute values. It cannot fail: every placeholder
// was validated at parse time.
func (t *idTemplate) render(attrs Attributes) string {
	var result bytes.Buffer
	for i, field := range t.fields {
		result.WriteString(t.literals[i])
		result.WriteString(field(attrs))
	}
	result.WriteString(t.literals[len(t.literals)-1])
	return result.String()
}
