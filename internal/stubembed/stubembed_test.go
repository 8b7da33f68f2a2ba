package stubembed

import (
	"context"
	"testing"
)

func TestEmbedIsDeterministic(t *testing.T) {
	e := New(32)
	ctx := context.Background()
	v1, err := e.Embed(ctx, "func add(a, b int) int { return a + b }")
	if err != nil {
		t.Fatal(err)
	}
	v2, err := e.Embed(ctx, "func add(a, b int) int { return a + b }")
	if err != nil {
		t.Fatal(err)
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("embedding not deterministic at index %d: %v vs %v", i, v1[i], v2[i])
		}
	}
}

func TestEmbedDifferentTextsDiffer(t *testing.T) {
	e := New(32)
	ctx := context.Background()
	v1, _ := e.Embed(ctx, "func add(a, b int) int { return a + b }")
	v2, _ := e.Embed(ctx, "func sub(a, b int) int { return a - b }")
	same := true
	for i := range v1 {
		if v1[i] != v2[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected different texts to produce different embeddings")
	}
}

func TestEmbedBatchMatchesIndividualEmbed(t *testing.T) {
	e := New(16)
	ctx := context.Background()
	texts := []string{"alpha beta gamma", "delta epsilon zeta"}
	batch, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		t.Fatal(err)
	}
	for i, text := range texts {
		single, err := e.Embed(ctx, text)
		if err != nil {
			t.Fatal(err)
		}
		for j := range single {
			if single[j] != batch[i][j] {
				t.Fatalf("batch[%d][%d] = %v, want %v", i, j, batch[i][j], single[j])
			}
		}
	}
}
