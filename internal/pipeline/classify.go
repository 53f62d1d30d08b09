package pipeline

import (
	"github.com/rs/zerolog"

	"mailedger/internal"
	"mailedger/internal/model"
	"mailedger/internal/util"
)

// Classify attaches predicted category and payee labels to each transaction.
// The input slice is left untouched; enriched copies come back.
func Classify(transactions []internal.Transaction, account string, bundle *model.Bundle, log zerolog.Logger) []internal.Transaction {
	out := make([]internal.Transaction, 0, len(transactions))
	for _, t := range transactions {
		amount, _ := t.Amount.Float64()
		feat := bundle.Encode(account, t.Desc, amount)
		category := bundle.PredictCategory(feat)
		payee := bundle.PredictPayee(feat)
		t.Category = util.StringPtr(category)
		t.Payee = util.StringPtr(payee)
		log.Debug().Str("desc", t.Desc).Str("category", category).Str("payee", payee).
			Msg("prediction")
		out = append(out, t)
	}
	return out
}
