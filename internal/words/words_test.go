package words

import "testing"

func TestNormalizeStripsPunctuation(t *testing.T) {
	cases := map[string]string{
		"Hello,":      "hello",
		"“Quoted”":    "quoted",
		"‘tis":        "tis",
		"(brackets)":  "brackets",
		"{Braces}!":   "braces",
		"well-known":  "wellknown",
		"and/or":      "andor",
		"  Mat.  ":    "mat",
		"don't":       "dont",
		"...":         "",
		"":            "",
		"—":           "",
		"Über":        "über",
		"end?!":       "end",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Hello,", "“It’s”", "  a - b ", "[x]", "ÀÉÎ", "", "?!", "tab\there"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestTokenizeDropsEmpty(t *testing.T) {
	tokens := Tokenize("The cat — sat, on\nthe \"mat\".")
	want := []string{"the", "cat", "sat", "on", "the", "mat"}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(want), len(tokens), tokens)
	}
	for i, w := range want {
		if tokens[i].Norm != w {
			t.Fatalf("token %d: expected %q, got %q", i, w, tokens[i].Norm)
		}
	}
	if tokens[5].Raw != "\"mat\"." {
		t.Fatalf("expected raw form preserved, got %q", tokens[5].Raw)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if got := Tokenize("   "); len(got) != 0 {
		t.Fatalf("expected no tokens, got %v", got)
	}
}
