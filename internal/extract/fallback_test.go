package extract

import (
	"context"
	"testing"

	"github.com/ppiankov/aletheia/internal/model"
)

func TestFallbackStrategy_ExtractsMarkedFragments(t *testing.T) {
	strategy := NewFallbackStrategy()

	text := "The vaccine was approved in 2021! Short one. What will happen next year though?"
	claims, err := strategy.Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(claims) != 2 {
		t.Fatalf("Expected 2 claims, got %d: %v", len(claims), claims)
	}
	if claims[0].Text != "The vaccine was approved in 2021" {
		t.Errorf("Unexpected first claim: %s", claims[0].Text)
	}
	if claims[1].Text != "What will happen next year though" {
		t.Errorf("Unexpected second claim: %s", claims[1].Text)
	}
	for _, claim := range claims {
		if claim.Confidence != 0.6 {
			t.Errorf("Expected confidence 0.6, got %f", claim.Confidence)
		}
		if claim.Method != model.MethodFallback {
			t.Errorf("Expected fallback method, got %s", claim.Method)
		}
	}
}

func TestFallbackStrategy_RequiresAuxiliaryMarker(t *testing.T) {
	strategy := NewFallbackStrategy()

	claims, err := strategy.Extract(context.Background(), "Quantum computers solve problems differently today.")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(claims) != 0 {
		t.Errorf("Expected 0 claims without auxiliary markers, got %d", len(claims))
	}
}

func TestFallbackStrategy_LengthBoundary(t *testing.T) {
	strategy := NewFallbackStrategy()

	// Exactly 20 characters misses the strictly-greater-than cut.
	claims, err := strategy.Extract(context.Background(), "This is twenty chars.")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(claims) != 0 {
		t.Errorf("Expected 0 claims at the boundary, got %d", len(claims))
	}

	claims, err = strategy.Extract(context.Background(), "This one is twenty-two.")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(claims) != 1 {
		t.Errorf("Expected 1 claim past the boundary, got %d", len(claims))
	}
}
