package heuristics

import (
	"sort"
	"strings"

	"course-backend/internal/lessons"
)

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "can": true, "for": true, "from": true, "how": true,
	"in": true, "into": true, "is": true, "it": true, "its": true, "of": true,
	"on": true, "or": true, "that": true, "the": true, "their": true,
	"this": true, "to": true, "use": true, "using": true, "what": true,
	"when": true, "which": true, "why": true, "will": true, "with": true,
	"students": true, "learner": true, "learners": true, "able": true,
	"understand": true, "explain": true, "describe": true, "identify": true,
	"apply": true, "lesson": true,
}

// extractKeywords pulls candidate keywords from objective statements and
// section constraints. Explicit required keywords are always included;
// objective statements contribute their non-stopword terms.
func extractKeywords(spec lessons.Specification) []string {
	seen := make(map[string]bool)
	var keywords []string
	add := func(raw string) {
		stemmed := stem(strings.ToLower(strings.TrimSpace(raw)))
		if len(stemmed) < 3 || stopwords[stemmed] || seen[stemmed] {
			return
		}
		seen[stemmed] = true
		keywords = append(keywords, stemmed)
	}

	for _, sec := range spec.Sections {
		for _, kw := range sec.RequiredKeywords {
			add(kw)
		}
	}
	for _, obj := range spec.Objectives {
		for _, word := range splitWords(obj.Statement) {
			add(word)
		}
	}
	sort.Strings(keywords)
	return keywords
}

// keywordCoverage is the fraction of spec keywords whose stem appears in the
// content. No keywords means nothing to cover, reported as full coverage.
func keywordCoverage(text string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 1.0
	}
	stems := make(map[string]bool)
	for _, word := range splitWords(strings.ToLower(text)) {
		stems[stem(word)] = true
	}
	found := 0
	for _, kw := range keywords {
		if stems[kw] {
			found++
		}
	}
	return float64(found) / float64(len(keywords))
}

// stem strips common English suffixes. Crude, but it only has to make a
// keyword and its inflection land on the same key.
func stem(word string) string {
	for _, suffix := range []string{"ing", "ies", "ion", "ed", "es", "ly", "s"} {
		if strings.HasSuffix(word, suffix) && len(word)-len(suffix) >= 3 {
			return word[:len(word)-len(suffix)]
		}
	}
	return word
}
