package heuristics

import (
	"strings"
	"unicode"
)

// fleschKincaidGrade computes the Flesch–Kincaid grade level from raw prose.
// Degenerate input (no words or no sentences) yields grade 0 rather than a
// division by zero.
func fleschKincaidGrade(text string) float64 {
	words := splitWords(text)
	if len(words) == 0 {
		return 0
	}
	sentences := countSentences(text)
	if sentences == 0 {
		sentences = 1
	}
	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}
	grade := 0.39*(float64(len(words))/float64(sentences)) + 11.8*(float64(syllables)/float64(len(words))) - 15.59
	if grade < 0 {
		return 0
	}
	return grade
}

func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-'
	})
}

func countWords(text string) int {
	return len(splitWords(text))
}

func countSentences(text string) int {
	count := 0
	inTerminal := false
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			if !inTerminal {
				count++
				inTerminal = true
			}
		default:
			if !unicode.IsSpace(r) {
				inTerminal = false
			}
		}
	}
	return count
}

// countSyllables approximates syllables by counting vowel groups with a
// silent-e adjustment. Known to be inaccurate on irregular words; callers
// accept approximate grades.
func countSyllables(word string) int {
	w := strings.ToLower(strings.Trim(word, "'-"))
	if w == "" {
		return 0
	}
	count := 0
	prevVowel := false
	for _, r := range w {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") && count > 1 {
		count--
	}
	if count == 0 {
		count = 1
	}
	return count
}
