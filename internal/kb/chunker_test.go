package kb

import (
	"reflect"
	"testing"
)

func TestChunkText_ShortParagraphsStayWhole(t *testing.T) {
	chunks := chunkText("First paragraph.\n\nSecond paragraph.", 500, 50)

	want := []string{"First paragraph.", "Second paragraph."}
	if !reflect.DeepEqual(chunks, want) {
		t.Errorf("Expected %v, got %v", want, chunks)
	}
}

func TestChunkText_SkipsBlankParagraphs(t *testing.T) {
	chunks := chunkText("One.\n\n\n\nTwo.", 500, 50)

	want := []string{"One.", "Two."}
	if !reflect.DeepEqual(chunks, want) {
		t.Errorf("Expected %v, got %v", want, chunks)
	}
}

func TestChunkText_PacksLongParagraphs(t *testing.T) {
	para := "Alpha beta gamma. Delta epsilon zeta. Eta theta iota."

	chunks := chunkText(para, 40, 0)

	want := []string{
		"Alpha beta gamma. Delta epsilon zeta.",
		"Eta theta iota..",
	}
	if !reflect.DeepEqual(chunks, want) {
		t.Errorf("Expected %v, got %v", want, chunks)
	}
}

func TestChunkText_CarriesOverlapTail(t *testing.T) {
	para := "Alpha beta gamma. Delta epsilon zeta. Eta theta iota."

	chunks := chunkText(para, 40, 25)

	want := []string{
		"Alpha beta gamma. Delta epsilon zeta.",
		"Delta epsilon zeta. Eta theta iota..",
	}
	if !reflect.DeepEqual(chunks, want) {
		t.Errorf("Expected %v, got %v", want, chunks)
	}
}

func TestChunkText_EmptyInput(t *testing.T) {
	if chunks := chunkText("   ", 500, 50); len(chunks) != 0 {
		t.Errorf("Expected no chunks for blank input, got %v", chunks)
	}
}
