package moderation

import (
	"testing"
)

func TestCheck_SingleWords(t *testing.T) {
	f := NewFilterWithTerms([]string{"badword", "offensive"})

	tests := []struct {
		name    string
		input   string
		blocked bool
		term    string
	}{
		{"exact match", "badword", true, "badword"},
		{"inside sentence", "this is badword here", true, "badword"},
		{"uppercase", "BADWORD", true, "badword"},
		{"mixed case", "BaDwOrD", true, "badword"},
		{"next to punctuation", "hello, badword!", true, "badword"},
		{"clean message", "hello world", false, ""},
		{"longer word not matched", "badwording is fine", false, ""},
		{"substring not matched", "mybadword", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := f.Check(tt.input)
			if result.Blocked != tt.blocked {
				t.Errorf("Check(%q).Blocked = %v, want %v", tt.input, result.Blocked, tt.blocked)
			}
			if tt.blocked && result.Term != tt.term {
				t.Errorf("Check(%q).Term = %q, want %q", tt.input, result.Term, tt.term)
			}
			if tt.blocked && result.Reason != "blocked_keyword" {
				t.Errorf("Check(%q).Reason = %q, want blocked_keyword", tt.input, result.Reason)
			}
		})
	}
}

func TestCheck_Phrases(t *testing.T) {
	f := NewFilterWithTerms([]string{"kill yourself", "send money"})

	tests := []struct {
		name    string
		input   string
		blocked bool
		term    string
	}{
		{"exact phrase", "kill yourself", true, "kill yourself"},
		{"phrase inside sentence", "you should kill yourself now", true, "kill yourself"},
		{"uppercase phrase", "KILL YOURSELF", true, "kill yourself"},
		{"inflected word not matched", "kill yourselves", false, ""},
		{"words apart not matched", "kill and yourself", false, ""},
		{"solicitation phrase", "please send money asap", true, "send money"},
		{"clean message", "i loved your profile", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := f.Check(tt.input)
			if result.Blocked != tt.blocked {
				t.Errorf("Check(%q).Blocked = %v, want %v", tt.input, result.Blocked, tt.blocked)
			}
			if tt.blocked && result.Term != tt.term {
				t.Errorf("Check(%q).Term = %q, want %q", tt.input, result.Term, tt.term)
			}
		})
	}
}

// Obfuscated spellings must hit the same terms as the plain ones.
func TestCheck_Leetspeak(t *testing.T) {
	f := NewFilterWithTerms([]string{"badword", "offensive"})

	for _, input := range []string{
		"b@dw0rd",
		"b@dword",
		"off3n$ive",
		"offens1ve",
		"offens!ve",
		"0ff3n$!v3",
	} {
		if !f.Check(input).Blocked {
			t.Errorf("Check(%q) not blocked, want blocked", input)
		}
	}
}

func TestCheck_DefaultBlocklist(t *testing.T) {
	f := NewFilter()
	if len(f.words) == 0 && len(f.phrases) == 0 {
		t.Fatal("default filter is empty")
	}

	// A sample from each category of the shipped list.
	for _, term := range []string{
		"kill yourself",
		"go die",
		"send money",
		"cashapp me",
		"escort",
	} {
		if !f.Check(term).Blocked {
			t.Errorf("Check(%q) not blocked, expected on the default list", term)
		}
	}

	for _, msg := range []string{
		"hello, how are you?",
		"what are your hobbies?",
		"your profile made me laugh",
		"coffee this weekend sounds great",
		"",
	} {
		if result := f.Check(msg); result.Blocked {
			t.Errorf("Check(%q) blocked (term=%q), expected clean", msg, result.Term)
		}
	}
}

func TestNewFilterWithTerms_SkipsBlankEntries(t *testing.T) {
	f := NewFilterWithTerms([]string{"", "  ", "valid"})

	if _, ok := f.words["valid"]; !ok {
		t.Error("expected 'valid' in words set")
	}
	if len(f.words) != 1 {
		t.Errorf("expected 1 word, got %d", len(f.words))
	}
}
