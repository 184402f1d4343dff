// Package naming formats CloudFormation logical IDs and configuration keys.
//
// Words are split on any non-alphanumeric character, on lower-to-upper
// transitions ("fooBar") and at the end of an acronym ("XMLParser"):
//
//	ResourceID("app", "dev", "orders")       → "AppDevOrders"
//	ResourceID("Query", "", "getUser")       → "QueryGetUser"
//	Camel("lambda-hello-world-arn")           → "lambdaHelloWorldArn"
//	Param("AppDevPostgresCluster")            → "app-dev-postgres-cluster"
package naming

import (
	"strings"
	"unicode"
)

// ResourceID joins the non-empty parts with "-" and converts the result to
// PascalCase. Identical parts always produce the same identifier.
func ResourceID(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return Pascal(strings.Join(kept, "-"))
}

// Pascal converts s to PascalCase.
func Pascal(s string) string {
	var b strings.Builder
	for _, w := range Words(s) {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

// Camel converts s to camelCase.
func Camel(s string) string {
	var b strings.Builder
	for i, w := range Words(s) {
		if i == 0 {
			b.WriteString(strings.ToLower(w))
			continue
		}
		b.WriteString(capitalize(w))
	}
	return b.String()
}

// Param converts s to lower-case words joined by "-".
func Param(s string) string {
	words := Words(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "-")
}

// Words splits s into its words.
func Words(s string) []string {
	runes := []rune(s)
	var words []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = nil
		}
	}

	for i, r := range runes {
		if !isAlnum(r) {
			flush()
			continue
		}
		if len(cur) > 0 && unicode.IsUpper(r) {
			prev := cur[len(cur)-1]
			switch {
			case unicode.IsLower(prev) || unicode.IsDigit(prev):
				flush()
			case unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

func capitalize(w string) string {
	runes := []rune(strings.ToLower(w))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
