package apilocale

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitChunks_Short(t *testing.T) {
	chunks := SplitChunks("  Bonjour le monde.  ", 50)

	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "Bonjour le monde." {
		t.Errorf("Expected trimmed text, got %q", chunks[0])
	}
}

func TestSplitChunks_SentenceBoundary(t *testing.T) {
	text := "La formation commence lundi. Elle dure trois semaines et se termine par un examen."
	chunks := SplitChunks(text, 40)

	if chunks[0] != "La formation commence lundi." {
		t.Errorf("Expected cut at sentence end, got %q", chunks[0])
	}
	if strings.Join(chunks, " ") != text {
		t.Errorf("Chunks should rebuild the text, got %q", strings.Join(chunks, " "))
	}
}

func TestSplitChunks_SentenceInFrontHalfIgnored(t *testing.T) {
	// The only full stop sits in the first half of the window, so the
	// splitter falls back to the last space.
	text := "Oui. abcdefgh ijklmnop qrstuvwx yz"
	chunks := SplitChunks(text, 20)

	if chunks[0] != "Oui. abcdefgh" {
		t.Errorf("Expected space fallback, got %q", chunks[0])
	}
}

func TestSplitChunks_CommaBoundary(t *testing.T) {
	text := "pommes,poires,bananes,cerises"
	chunks := SplitChunks(text, 16)

	if chunks[0] != "pommes,poires," {
		t.Errorf("Expected cut after comma, got %q", chunks[0])
	}
}

func TestSplitChunks_HardCut(t *testing.T) {
	text := strings.Repeat("a", 25)
	chunks := SplitChunks(text, 10)

	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks[:2] {
		if len(c) != 10 {
			t.Errorf("chunk %d: expected 10 runes, got %d", i, len(c))
		}
	}
	if chunks[2] != "aaaaa" {
		t.Errorf("Expected remainder 'aaaaa', got %q", chunks[2])
	}
}

func TestSplitChunks_RuneSafe(t *testing.T) {
	text := strings.Repeat("é", 30)
	chunks := SplitChunks(text, 7)

	total := 0
	for _, c := range chunks {
		if !utf8.ValidString(c) {
			t.Fatalf("chunk %q is not valid UTF-8", c)
		}
		if n := utf8.RuneCountInString(c); n > 7 {
			t.Errorf("chunk has %d runes, limit is 7", n)
		}
		total += utf8.RuneCountInString(c)
	}
	if total != 30 {
		t.Errorf("Expected 30 runes in total, got %d", total)
	}
}

func TestSplitChunks_Empty(t *testing.T) {
	if chunks := SplitChunks("   ", 10); len(chunks) != 0 {
		t.Errorf("Expected no chunks, got %v", chunks)
	}
}
