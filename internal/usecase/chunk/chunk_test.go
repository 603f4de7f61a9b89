package chunk

import (
	"fmt"
	"strings"
	"testing"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestSplit_Empty(t *testing.T) {
	if got := Split("", Options{}); len(got) != 0 {
		t.Errorf("empty input: got %d chunks, want 0", len(got))
	}
	if got := Split("\n\n  \n\n", Options{}); len(got) != 0 {
		t.Errorf("whitespace-only input: got %d chunks, want 0", len(got))
	}
}

func TestSplit_ShortInput(t *testing.T) {
	text := "hello world this fits in one chunk"
	got := Split(text, Options{Size: 100, Overlap: 10})
	if len(got) != 1 {
		t.Fatalf("got %d chunks, want 1", len(got))
	}
	if got[0].Content != text {
		t.Errorf("content = %q, want input unchanged", got[0].Content)
	}
	if got[0].Index != 0 {
		t.Errorf("index = %d, want 0", got[0].Index)
	}
}

func TestSplit_ParagraphAccumulation(t *testing.T) {
	// Four 40-word paragraphs with size 100: two chunks of two paragraphs.
	para := words(40)
	text := strings.Join([]string{para, para, para, para}, "\n\n")
	got := Split(text, Options{Size: 100, Overlap: 10})

	if len(got) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Index <= got[i-1].Index {
			t.Errorf("chunk indices not increasing: %d then %d", got[i-1].Index, got[i].Index)
		}
	}
}

func TestSplit_OverlapSeedsNextChunk(t *testing.T) {
	paraA := words(90)
	paraB := "unique" + " " + words(50)
	got := Split(paraA+"\n\n"+paraB, Options{Size: 100, Overlap: 10})
	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got))
	}
	firstWords := strings.Fields(got[0].Content)
	tail := strings.Join(firstWords[len(firstWords)-10:], " ")
	if !strings.HasPrefix(got[1].Content, tail) {
		t.Errorf("second chunk does not start with the previous chunk's last 10 words")
	}
}

func TestSplit_OversizedParagraph(t *testing.T) {
	// 1000-word single paragraph, size 100, overlap 10.
	got := Split(words(1000), Options{Size: 100, Overlap: 10})
	if len(got) <= 1 {
		t.Fatalf("got %d chunks, want more than 1", len(got))
	}
	for i, c := range got {
		n := len(strings.Fields(c.Content))
		if i < len(got)-1 {
			if n < 100 || n > 150 {
				t.Errorf("chunk %d has %d words, want within [100,150]", i, n)
			}
		}
		if n > 150 {
			t.Errorf("chunk %d has %d words, exceeds 1.5x size", i, n)
		}
	}
}

func TestSplit_ReconstructsSourceOrder(t *testing.T) {
	paras := []string{words(30), "alpha beta gamma", words(25), "delta epsilon"}
	text := strings.Join(paras, "\n\n")
	got := Split(text, Options{Size: 40, Overlap: 5})

	// Every paragraph's first word must appear, in order, across the chunks.
	joined := ""
	for _, c := range got {
		joined += c.Content + " "
	}
	pos := -1
	for _, p := range paras {
		first := strings.Fields(p)[0]
		idx := strings.Index(joined, first)
		if idx < 0 {
			t.Fatalf("paragraph start %q missing from output", first)
		}
		if idx < pos {
			t.Errorf("paragraph %q out of order", first)
		}
		pos = idx
	}
}

func TestSplit_OverlapAlwaysBelowSize(t *testing.T) {
	// Overlap >= size collapses to size/10 instead of stalling the stride.
	got := Split(words(300), Options{Size: 50, Overlap: 50})
	if len(got) == 0 {
		t.Fatal("no chunks produced")
	}
	for _, c := range got {
		if n := len(strings.Fields(c.Content)); n > 75 {
			t.Errorf("chunk has %d words, exceeds 1.5x size", n)
		}
	}
}

func TestSplit_CharOffsets(t *testing.T) {
	got := Split(words(10)+"\n\n"+words(10), Options{Size: 100, Overlap: 10})
	if len(got) != 1 {
		t.Fatalf("got %d chunks, want 1", len(got))
	}
	if got[0].StartChar != 0 {
		t.Errorf("StartChar = %d, want 0", got[0].StartChar)
	}
	if got[0].EndChar <= got[0].StartChar {
		t.Errorf("EndChar %d not after StartChar %d", got[0].EndChar, got[0].StartChar)
	}
}
