package moderation

import "testing"

// noKeywords isolates the spam pattern checks from the keyword blocklist.
func noKeywords() *Filter {
	return NewFilterWithTerms(nil)
}

func TestSpamPatterns(t *testing.T) {
	f := noKeywords()

	tests := []struct {
		name  string
		input string
		term  string
	}{
		{"http url", "check out http://evil.com", "url"},
		{"https url", "visit https://spam.xyz/click", "url"},
		{"www url", "go to www.phishing.net", "url"},
		{"bare domain with path", "visit evil.com/free", "url"},
		{"bare domain .ru path", "go to site.ru/malware", "url"},
		{"intl dashed phone", "+1-555-123-4567", "phone"},
		{"parenthesized area code", "(555) 123-4567", "phone"},
		{"dotted phone", "555.123.4567", "phone"},
		{"phone in sentence", "text me at 555-123-4567 okay?", "phone"},
		{"repeated o in word", "hellooooooo", "char_flood"},
		{"repeated capitals", "AAAAAA", "char_flood"},
		{"repeated punctuation", "=====", "char_flood"},
		{"word repeated thrice", "buy buy buy", "word_flood"},
		{"word flood in sentence", "hey buy buy buy now", "word_flood"},
		{"word flood case insensitive", "BUY buy Buy", "word_flood"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := f.Check(tt.input)
			if !result.Blocked {
				t.Fatalf("Check(%q) not blocked, want term %q", tt.input, tt.term)
			}
			if result.Reason != "spam_pattern" {
				t.Errorf("Check(%q).Reason = %q, want spam_pattern", tt.input, result.Reason)
			}
			if result.Term != tt.term {
				t.Errorf("Check(%q).Term = %q, want %q", tt.input, result.Term, tt.term)
			}
		})
	}
}

// First-date small talk must pass untouched, including mild repetition and
// number-heavy messages that sit near the flood and phone thresholds.
func TestSpamCleanMessages(t *testing.T) {
	f := noKeywords()

	clean := []struct {
		name  string
		input string
	}{
		{"short number", "I have 3 cats"},
		{"casual chat", "lol that's cool"},
		{"decimal number", "pi is about 3.14"},
		{"normal sentence", "how was your date?"},
		{"score", "I got 42 out of 50"},
		{"year reference", "see you in 2026"},
		{"empty string", ""},
		{"excitement", "wow!!! that's great!!"},
		{"mild stretch", "sooo cool"},
		{"four repeated chars", "heeeel no"},
		{"double word", "yeah yeah whatever"},
		{"short sentences", "ok. sure. fine."},
		{"money amount", "it costs $5.99"},
		{"newlines", "hello\nworld"},
		{"spaces only", "   "},
	}

	for _, tt := range clean {
		t.Run(tt.name, func(t *testing.T) {
			result := f.Check(tt.input)
			if result.Blocked {
				t.Errorf("Check(%q) blocked (reason=%q term=%q), want clean",
					tt.input, result.Reason, result.Term)
			}
		})
	}
}

func TestSpamFloodThresholds(t *testing.T) {
	f := noKeywords()

	if f.Check("aaaa").Blocked {
		t.Error("4 repeated chars must pass")
	}
	if !f.Check("aaaaa").Blocked {
		t.Error("5 repeated chars must be flagged")
	}
	if f.Check("go go").Blocked {
		t.Error("2 repeated words must pass")
	}
	if !f.Check("go go go").Blocked {
		t.Error("3 repeated words must be flagged")
	}
}

// A blocked keyword wins over a spam pattern when both match.
func TestKeywordBeatsSpamPattern(t *testing.T) {
	f := NewFilterWithTerms([]string{"badword"})

	result := f.Check("badword at http://evil.com")
	if !result.Blocked {
		t.Fatal("expected blocked")
	}
	if result.Reason != "blocked_keyword" {
		t.Errorf("Reason = %q, want blocked_keyword", result.Reason)
	}
}
