package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// EmailPattern finds email-like tokens anywhere in page text.
	EmailPattern = regexp.MustCompile(`(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`)
	// PhonePattern finds US phone-like digit groups with an optional +1 prefix
	// and space, dot or dash separators.
	PhonePattern = regexp.MustCompile(`(?:\+1[\s.-]?)?(?:\(?(\d{3})\)?[\s.-]?)(\d{3})[\s.-]?(\d{4})`)

	wordStartRegexp = regexp.MustCompile(`\b[a-z]\w*`)
)

// TitleCase lowercases s and capitalises the first letter of every word.
func TitleCase(s string) string {
	return wordStartRegexp.ReplaceAllStringFunc(strings.ToLower(s), func(w string) string {
		return strings.ToUpper(w[:1]) + w[1:]
	})
}

// CollapseSpace trims s and collapses internal whitespace runs to one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// NameKey is the identity key for a person.
func NameKey(name string) string {
	return strings.ToLower(name)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone renders raw as "(DDD) DDD-DDDD". An 11-digit number with a
// leading 1 drops the country code; fewer than 10 digits returns "".
func NormalizePhone(raw string) string {
	d := digitsOnly(raw)
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) < 10 {
		return ""
	}
	return "(" + d[0:3] + ") " + d[3:6] + "-" + d[6:10]
}

// ToE164 renders a US number as "+1DDDDDDDDDD", or "" when it has fewer than
// 10 digits.
func ToE164(raw string) string {
	d := digitsOnly(raw)
	if len(d) == 11 && d[0] == '1' {
		return "+" + d
	}
	if len(d) >= 10 {
		return "+1" + d[len(d)-10:]
	}
	return ""
}

// ExtractEmails returns the distinct lowercased emails in text, in order of
// first appearance.
func ExtractEmails(text string) []string {
	matches := EmailPattern.FindAllString(text, -1)
	for i, m := range matches {
		matches[i] = strings.ToLower(m)
	}
	return DedupeBy(matches, func(s string) string { return s })
}

// ExtractPhones returns the distinct canonical phones in text, in order of
// first appearance. Matches that do not normalise are dropped.
func ExtractPhones(text string) []string {
	matches := PhonePattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if p := NormalizePhone(m); p != "" {
			out = append(out, p)
		}
	}
	return DedupeBy(out, func(s string) string { return s })
}

// DedupeBy keeps the first item for every key, preserving input order. Items
// whose key is the zero value are dropped.
func DedupeBy[T any, K comparable](items []T, key func(T) K) []T {
	var zero K
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if k == zero {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

// SplitName returns the first whitespace-delimited token and the remainder.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
