package composequery

import "strings"

const Stage = "compose-query"

// Compose restricts question to domains with a "site:" disjunction.
// With no domains the question is returned unchanged.
func Compose(question string, domains []string) string {
	if len(domains) == 0 {
		return question
	}

	sites := make([]string, len(domains))
	for i, d := range domains {
		sites[i] = "site:" + d
	}
	return question + " (" + strings.Join(sites, " OR ") + ")"
}

// WithKeywords appends extracted keywords to the question. The question
// itself is always kept.
func WithKeywords(question, keywords string) string {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return question
	}
	return question + " " + keywords
}
