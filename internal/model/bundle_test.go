package model

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func testBundle() *Bundle {
	return &Bundle{
		Vectorizer: Vectorizer{
			Vocabulary: map[string]int{"coffee": 0, "shop": 1, "payroll": 2},
			IDF:        []float64{1, 1, 1},
		},
		Accounts: []string{"checking", "savings"},
		Category: Classifier{
			// feature order: coffee, shop, payroll, checking, savings, amount
			Weights: [][]float64{
				{1, 1, 0, 0, 0, 0},
				{0, 0, 1, 0, 0, 0},
			},
			Intercept: []float64{0, 0},
			Classes:   []string{"Food", "Income"},
		},
		Payee: Classifier{
			Weights: [][]float64{
				{1, 0, 0, 0, 0, 0},
				{0, 0, 1, 0, 0, 0},
			},
			Intercept: []float64{0, 0},
			Classes:   []string{"Coffee Shop", "Employer"},
		},
	}
}

func writeBundle(t *testing.T, b *Bundle) string {
	t.Helper()
	blob, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "models.json")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRoundTrip(t *testing.T) {
	b, err := Load(writeBundle(t, testBundle()))
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Vectorizer.Vocabulary) != 3 || len(b.Category.Classes) != 2 {
		t.Fatalf("bundle=%+v", b)
	}
}

func TestLoadRejectsShapeMismatch(t *testing.T) {
	b := testBundle()
	b.Category.Weights[0] = []float64{1, 2}
	if _, err := Load(writeBundle(t, b)); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadRejectsVocabularyIndexOutOfRange(t *testing.T) {
	b := testBundle()
	// Index 5 would read past the 3-entry idf slice at encode time.
	b.Vectorizer.Vocabulary = map[string]int{"coffee": 5, "shop": 1, "payroll": 2}
	if _, err := Load(writeBundle(t, b)); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadRejectsDuplicateVocabularyIndex(t *testing.T) {
	b := testBundle()
	b.Vectorizer.Vocabulary = map[string]int{"coffee": 1, "shop": 1, "payroll": 2}
	if _, err := Load(writeBundle(t, b)); err == nil {
		t.Fatal("expected error")
	}
}

func TestEncode(t *testing.T) {
	b := testBundle()
	feat := b.Encode("checking", "Coffee coffee SHOP", -12.5)

	if len(feat) != 6 {
		t.Fatalf("len=%d", len(feat))
	}
	// counts: coffee=2, shop=1, l2-normalized.
	norm := math.Sqrt(2*2 + 1*1)
	if math.Abs(feat[0]-2/norm) > 1e-9 || math.Abs(feat[1]-1/norm) > 1e-9 {
		t.Fatalf("tfidf=%v", feat[:3])
	}
	if feat[2] != 0 {
		t.Fatalf("payroll feature=%v", feat[2])
	}
	if feat[3] != 1 || feat[4] != 0 {
		t.Fatalf("onehot=%v", feat[3:5])
	}
	if feat[5] != -12.5 {
		t.Fatalf("amount=%v", feat[5])
	}
}

func TestEncodeUnknownVocabulary(t *testing.T) {
	b := testBundle()
	feat := b.Encode("unknown-account", "ZZZ unseen words", 3)
	for i := 0; i < 5; i++ {
		if feat[i] != 0 {
			t.Fatalf("feat[%d]=%v", i, feat[i])
		}
	}
	if feat[5] != 3 {
		t.Fatalf("amount=%v", feat[5])
	}
}

func TestPredict(t *testing.T) {
	b := testBundle()

	food := b.Encode("checking", "coffee shop", -12.5)
	if got := b.PredictCategory(food); got != "Food" {
		t.Fatalf("category=%q", got)
	}
	if got := b.PredictPayee(food); got != "Coffee Shop" {
		t.Fatalf("payee=%q", got)
	}

	income := b.Encode("checking", "payroll", 2500)
	if got := b.PredictCategory(income); got != "Income" {
		t.Fatalf("category=%q", got)
	}
	if got := b.PredictPayee(income); got != "Employer" {
		t.Fatalf("payee=%q", got)
	}
}
