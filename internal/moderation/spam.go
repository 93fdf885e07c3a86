package moderation

import (
	"regexp"
	"strings"
	"unicode"
)

// Scam conversations on the platform almost always start with moving the
// victim off-platform, so contact-detail sharing is the strongest spam
// signal we screen for.
var (
	// urlPattern matches http/https URLs, www. URLs, and bare domains with
	// common TLDs. The bare-domain variant requires a trailing "/" to avoid
	// false positives on version strings like "v2.0" or decimals like "3.14".
	urlPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+|\S+\.(com|net|org|io|co|xyz|info|biz|ru|cn|tk|ml|ga|cf)/\S*)`)

	// phonePattern matches phone number formats such as +1-555-123-4567,
	// (555) 123-4567, and 555.123.4567. Anchored to whitespace/string
	// boundaries so digit runs inside normal words and short numbers like
	// "100" don't trip it.
	phonePattern = regexp.MustCompile(`(?:^|\s)(\+?\d{1,3}[-.\s]?)?\(?\d{2,4}\)?[-.\s]?\d{3,4}[-.\s]?\d{3,4}(?:\s|$)`)
)

const (
	charFloodThreshold = 5 // consecutive identical characters
	wordFloodThreshold = 3 // consecutive identical words
)

// checkSpamPatterns runs the spam checks in order and returns a blocking
// FilterResult on the first hit. RE2 has no backreferences, so the flooding
// checks are linear scans rather than regexes.
func (f *Filter) checkSpamPatterns(text string) FilterResult {
	switch {
	case urlPattern.MatchString(text):
		return FilterResult{Blocked: true, Reason: "spam_pattern", Term: "url"}
	case phonePattern.MatchString(text):
		return FilterResult{Blocked: true, Reason: "spam_pattern", Term: "phone"}
	case hasCharFlood(text):
		return FilterResult{Blocked: true, Reason: "spam_pattern", Term: "char_flood"}
	case hasWordFlood(text):
		return FilterResult{Blocked: true, Reason: "spam_pattern", Term: "word_flood"}
	}
	return FilterResult{}
}

// hasCharFlood reports whether text contains charFloodThreshold or more
// consecutive identical characters.
func hasCharFlood(text string) bool {
	count := 1
	prev := rune(-1)
	for _, r := range text {
		if r == prev {
			count++
			if count >= charFloodThreshold {
				return true
			}
		} else {
			count = 1
			prev = r
		}
	}
	return false
}

// hasWordFlood reports whether the same word appears wordFloodThreshold or
// more times in a row, case-insensitively.
func hasWordFlood(text string) bool {
	words := strings.FieldsFunc(text, unicode.IsSpace)
	if len(words) < wordFloodThreshold {
		return false
	}

	count := 1
	prev := ""
	for _, w := range words {
		lower := strings.ToLower(w)
		if lower == prev {
			count++
			if count >= wordFloodThreshold {
				return true
			}
		} else {
			count = 1
			prev = lower
		}
	}
	return false
}
