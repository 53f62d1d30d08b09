package pipeline

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"mailedger/internal"
	"mailedger/internal/model"
)

func classifierBundle() *model.Bundle {
	return &model.Bundle{
		Vectorizer: model.Vectorizer{
			Vocabulary: map[string]int{"coffee": 0, "payroll": 1},
			IDF:        []float64{1, 1},
		},
		Accounts: []string{"checking"},
		Category: model.Classifier{
			Weights:   [][]float64{{1, 0, 0, 0}, {0, 1, 0, 0}},
			Intercept: []float64{0, 0},
			Classes:   []string{"Food", "Income"},
		},
		Payee: model.Classifier{
			Weights:   [][]float64{{1, 0, 0, 0}, {0, 1, 0, 0}},
			Intercept: []float64{0, 0},
			Classes:   []string{"Coffee Shop", "Employer"},
		},
	}
}

func TestClassify(t *testing.T) {
	input := []internal.Transaction{
		{Time: time.Now(), Amount: decimal.RequireFromString("-12.5"), Desc: "COFFEE downtown"},
		{Time: time.Now(), Amount: decimal.RequireFromString("2500"), Desc: "PAYROLL acme"},
	}

	out := Classify(input, "checking", classifierBundle(), zerolog.Nop())

	if len(out) != 2 {
		t.Fatalf("len=%d", len(out))
	}
	if out[0].Category == nil || *out[0].Category != "Food" {
		t.Fatalf("category=%v", out[0].Category)
	}
	if out[0].Payee == nil || *out[0].Payee != "Coffee Shop" {
		t.Fatalf("payee=%v", out[0].Payee)
	}
	if out[1].Category == nil || *out[1].Category != "Income" {
		t.Fatalf("category=%v", out[1].Category)
	}

	// Input is returned enriched as copies, never mutated.
	for i, txn := range input {
		if txn.Category != nil || txn.Payee != nil {
			t.Fatalf("input[%d] mutated: %+v", i, txn)
		}
	}
}
