package chunking

import "testing"

func TestSentencesSplitsOnTerminators(t *testing.T) {
	got := Sentences("First sentence. Second one! Third?\nFourth line")
	want := []string{"First sentence.", "Second one!", "Third?", "Fourth line"}
	if len(got) != len(want) {
		t.Fatalf("Sentences() len = %d, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Sentences()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSentencesKeepsInlineAbbreviations(t *testing.T) {
	got := Sentences("Methods, e.g. interviews, were used. Done.")
	if len(got) != 2 {
		t.Fatalf("Sentences() len = %d, want 2: %v", len(got), got)
	}
	if got[0] != "Methods, e.g. interviews, were used." {
		t.Fatalf("first sentence = %q", got[0])
	}
}

func TestSentencesEmptyInput(t *testing.T) {
	if got := Sentences(""); got != nil {
		t.Fatalf("Sentences(\"\") = %v, want nil", got)
	}
}

func TestWindowCutsAtWordBoundary(t *testing.T) {
	got := Window("alpha beta gamma delta", 12)
	if got != "alpha beta" {
		t.Fatalf("Window() = %q, want %q", got, "alpha beta")
	}
}

func TestWindowKeepsShortText(t *testing.T) {
	got := Window("short text", 240)
	if got != "short text" {
		t.Fatalf("Window() = %q", got)
	}
}

func TestWindowHardCutsSingleLongWord(t *testing.T) {
	got := Window("aaaaaaaaaaaaaaaaaaaa", 5)
	if got != "aaaaa" {
		t.Fatalf("Window() = %q, want %q", got, "aaaaa")
	}
}
