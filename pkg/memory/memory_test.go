package memory

import (
	"math"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreGetDelete(t *testing.T) {
	s := openTestStore(t)

	if !s.Store("k1", "v1", nil) {
		t.Fatal("expected Store to succeed")
	}
	val, ok := s.Get("k1")
	if !ok || val != "v1" {
		t.Fatalf("expected (v1, true), got (%q, %v)", val, ok)
	}

	if !s.Store("k1", "v2", nil) {
		t.Fatal("expected upsert to succeed")
	}
	val, _ = s.Get("k1")
	if val != "v2" {
		t.Errorf("expected upserted value v2, got %q", val)
	}

	if !s.Delete("k1") {
		t.Fatal("expected Delete to report removal")
	}
	if _, ok := s.Get("k1"); ok {
		t.Error("expected key to be gone after delete")
	}
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)
	if _, ok := s.Get("missing"); ok {
		t.Error("expected missing key to report false")
	}
}

func TestCosineSimilarityIdentityAndOpposite(t *testing.T) {
	v := []float32{1, 2, 3}
	neg := []float32{-1, -2, -3}
	if got := cosineSimilarity(v, v); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("cosine_sim(v,v) = %v, want 1.0", got)
	}
	if got := cosineSimilarity(v, neg); math.Abs(got-(-1.0)) > 1e-9 {
		t.Errorf("cosine_sim(v,-v) = %v, want -1.0", got)
	}
}

func TestCosineSimilarityZeroNorm(t *testing.T) {
	if got := cosineSimilarity([]float32{0, 0}, []float32{1, 1}); got != 0.0 {
		t.Errorf("expected 0.0 for zero-norm vector, got %v", got)
	}
}

func TestSearchRanking(t *testing.T) {
	s := openTestStore(t)
	s.Store("e1", "one", []float32{1, 0, 0})
	s.Store("e2", "two", []float32{0, 1, 0})
	s.Store("e3", "three", []float32{1, 1, 0})

	results, err := s.Search([]float32{1, 0.1, 0}, 2)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Key != "e1" || results[1].Key != "e3" {
		t.Fatalf("unexpected order: %+v", results)
	}
	if math.Abs(results[0].Score-0.995) > 0.001 {
		t.Errorf("expected e1 score ~0.995, got %v", results[0].Score)
	}
	if math.Abs(results[1].Score-0.774) > 0.001 {
		t.Errorf("expected e3 score ~0.774, got %v", results[1].Score)
	}
}

func TestSearchIgnoresMismatchedDim(t *testing.T) {
	s := openTestStore(t)
	s.Store("a", "a", []float32{1, 0})
	s.Store("b", "b", []float32{1, 0, 0})

	results, err := s.Search([]float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) != 1 || results[0].Key != "b" {
		t.Fatalf("expected only dim-matching row, got %+v", results)
	}
}
