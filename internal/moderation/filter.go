// Package moderation screens persisted chat messages for prohibited content
// and scam signals. It runs out of process, consuming the relay's
// persisted-message event stream and publishing flags for the trust-and-safety
// pipeline; it never sits on the hot send path.
package moderation

import "strings"

// defaultTerms is the built-in blocklist. Deployments extend it via
// NewFilterWithTerms; the defaults cover the highest-signal harassment and
// solicitation terms seen in review queues.
var defaultTerms = []string{
	"kill yourself",
	"go die",
	"send money",
	"wire transfer",
	"cashapp me",
	"venmo me",
	"onlyfans",
	"sugar daddy wanted",
	"escort",
}

// leetMap normalizes common character substitutions before matching.
var leetMap = strings.NewReplacer(
	"@", "a",
	"0", "o",
	"1", "i",
	"!", "i",
	"3", "e",
	"$", "s",
	"5", "s",
	"7", "t",
)

// FilterResult is the outcome of screening one message.
type FilterResult struct {
	Blocked bool
	Reason  string // "blocked_keyword" or "spam_pattern"
	Term    string // the matched term or pattern name
}

// Filter matches messages against a term blocklist and spam patterns.
// Single-word terms are matched per token; multi-word terms are matched as
// whole-word phrases. Matching is case-insensitive and leetspeak-aware.
type Filter struct {
	words   map[string]struct{} // single-word terms
	phrases []string            // multi-word terms
}

// NewFilter creates a Filter with the built-in blocklist.
func NewFilter() *Filter {
	return NewFilterWithTerms(defaultTerms)
}

// NewFilterWithTerms creates a Filter from an explicit term list. Terms
// containing whitespace are treated as phrases, everything else as single
// words.
func NewFilterWithTerms(terms []string) *Filter {
	f := &Filter{words: make(map[string]struct{})}
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if strings.ContainsRune(term, ' ') {
			f.phrases = append(f.phrases, term)
		} else {
			f.words[term] = struct{}{}
		}
	}
	return f
}

// Check screens a message. The first match wins: blocklist terms are checked
// on both the plain and leet-normalized forms of the text, then the spam
// patterns run against the original text.
func (f *Filter) Check(text string) FilterResult {
	lower := strings.ToLower(text)

	for _, variant := range []string{lower, leetMap.Replace(lower)} {
		if result := f.matchTerms(variant); result.Blocked {
			return result
		}
	}

	return f.checkSpamPatterns(text)
}

// matchTerms tokenizes the text (punctuation becomes whitespace) and looks
// for whole-word and whole-phrase blocklist hits.
func (f *Filter) matchTerms(text string) FilterResult {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r)
	})

	for _, tok := range tokens {
		if _, ok := f.words[tok]; ok {
			return FilterResult{Blocked: true, Reason: "blocked_keyword", Term: tok}
		}
	}

	if len(f.phrases) > 0 {
		// Whole-word phrase search: pad with spaces so "kill yourself" does
		// not match inside "kill yourselves".
		joined := " " + strings.Join(tokens, " ") + " "
		for _, phrase := range f.phrases {
			if strings.Contains(joined, " "+phrase+" ") {
				return FilterResult{Blocked: true, Reason: "blocked_keyword", Term: phrase}
			}
		}
	}

	return FilterResult{}
}

func isWordRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '\''
}
