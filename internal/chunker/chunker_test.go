package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_ShortTextReturnedWhole(t *testing.T) {
	tests := []struct {
		name string
		text string
		size int
	}{
		{name: "shorter than chunk size", text: "hello world", size: 100},
		{name: "exactly chunk size", text: strings.Repeat("a", 50), size: 50},
		{name: "whitespace preserved", text: "  padded  ", size: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.text, tt.size, 10)
			if len(got) != 1 {
				t.Fatalf("Split() returned %d chunks, want 1", len(got))
			}
			if got[0] != tt.text {
				t.Errorf("Split() = %q, want the input unmodified", got[0])
			}
		})
	}
}

func TestSplit_ChunksNeverExceedSize(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200)

	for _, overlap := range []int{0, 50, 199} {
		chunks := Split(text, 200, overlap)
		if len(chunks) < 2 {
			t.Fatalf("Split() with overlap %d returned %d chunks, want several", overlap, len(chunks))
		}
		for i, c := range chunks {
			if n := utf8.RuneCountInString(c); n > 200 {
				t.Errorf("chunk %d has %d runes, want <= 200 (overlap %d)", i, n, overlap)
			}
		}
	}
}

func TestSplit_TerminatesWhenOverlapExceedsSize(t *testing.T) {
	text := strings.Repeat("x", 5000)

	// overlap == chunkSize would stall the window without forced progress;
	// the test relies on the go test timeout to catch a hang.
	for _, overlap := range []int{100, 150} {
		chunks := Split(text, 100, overlap)
		if len(chunks) != 50 {
			t.Errorf("Split() with overlap %d returned %d chunks, want 50 non-overlapping windows", overlap, len(chunks))
		}
		for i, c := range chunks {
			if utf8.RuneCountInString(c) > 100 {
				t.Errorf("chunk %d exceeds chunk size", i)
			}
		}
	}
}

func TestSplit_SentenceBoundaryPreferred(t *testing.T) {
	// One sentence ends at rune 180, well inside the 100-rune lookback from
	// the raw cut at 200. The first chunk should end right after the period.
	text := strings.Repeat("a", 179) + "." + strings.Repeat("b", 300)

	chunks := Split(text, 200, 0)
	if len(chunks) < 2 {
		t.Fatalf("Split() returned %d chunks, want at least 2", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], ".") {
		t.Errorf("first chunk should end at the sentence boundary, got suffix %q", chunks[0][len(chunks[0])-5:])
	}
	if utf8.RuneCountInString(chunks[0]) != 180 {
		t.Errorf("first chunk has %d runes, want 180", utf8.RuneCountInString(chunks[0]))
	}
	if !strings.HasPrefix(chunks[1], "b") {
		t.Errorf("second chunk should start after the boundary, got prefix %q", chunks[1][:5])
	}
}

func TestSplit_NoBoundaryWithinLookbackCutsRaw(t *testing.T) {
	text := strings.Repeat("a", 500) // no sentence terminators at all

	chunks := Split(text, 200, 0)
	if len(chunks) != 3 {
		t.Fatalf("Split() returned %d chunks, want 3", len(chunks))
	}
	if utf8.RuneCountInString(chunks[0]) != 200 {
		t.Errorf("first chunk has %d runes, want raw cut at 200", utf8.RuneCountInString(chunks[0]))
	}
}

func TestSplit_TypicalDocumentScenario(t *testing.T) {
	// 2500 runes of prose with regular sentence boundaries, chunked at
	// 1000/200: three windows cover the text.
	sentence := "Ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod. "
	var b strings.Builder
	for utf8.RuneCountInString(b.String()) < 2500 {
		b.WriteString(sentence)
	}
	text := string([]rune(b.String())[:2500])

	chunks := Split(text, 1000, 200)
	if len(chunks) != 3 {
		t.Fatalf("Split() returned %d chunks, want 3", len(chunks))
	}

	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 1000 {
			t.Errorf("chunk %d has %d runes, want <= 1000", i, n)
		}
	}

	// Adjacent chunks share an overlapping region of up to 200 runes: each
	// chunk after the first must start with text present near the end of its
	// predecessor.
	for i := 1; i < len(chunks); i++ {
		head := string([]rune(chunks[i])[:50])
		if !strings.Contains(chunks[i-1], head) {
			t.Errorf("chunk %d head not found in chunk %d tail; overlap lost", i, i-1)
		}
	}
}

func TestSplit_EmptyChunksDropped(t *testing.T) {
	// Whitespace-only tail windows must not produce chunks.
	text := strings.Repeat("a", 150) + strings.Repeat(" \n ", 100)

	chunks := Split(text, 100, 0)
	for i, c := range chunks {
		if strings.TrimSpace(c) == "" {
			t.Errorf("chunk %d is blank, want blank chunks dropped", i)
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("Some sentences here. And more of them! Plus a question? ", 100)

	a := Split(text, 300, 60)
	b := Split(text, 300, 60)

	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs between identical invocations", i)
		}
	}
}

func TestSplit_InvalidChunkSize(t *testing.T) {
	if got := Split("text", 0, 0); got != nil {
		t.Errorf("Split() with zero chunk size = %v, want nil", got)
	}
}
