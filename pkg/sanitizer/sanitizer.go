package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reFacilityIDChars = regexp.MustCompile(`[^0-9A-Za-z\-]+`)
	reMultiHyphen     = regexp.MustCompile(`-+`)
)

func trimAndLower(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return s
}

func SanitizeEmail(input string) string {
	return trimAndLower(input)
}

// SanitizeFacilityID keeps the case of the configured id ("A", "Paris-HQ")
// and drops anything that could not appear in a booking id prefix.
func SanitizeFacilityID(input string) string {
	p := Pipeline{
		strings.TrimSpace,
		func(s string) string { return reFacilityIDChars.ReplaceAllString(s, "") },
		func(s string) string { return reMultiHyphen.ReplaceAllString(s, "-") },
	}
	return p.Apply(input)
}

func SanitizeDate(input string) string {
	return strings.TrimSpace(input)
}

func SanitizeSlice(values []string, strategy Strategy) []string {
	seen := make(map[string]struct{})
	out := []string{}

	for _, v := range values {
		s := strategy(v)
		if s == "" {
			continue
		}
		if _, exists := seen[s]; exists {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
