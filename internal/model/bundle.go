package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
)

// Bundle is a pre-fitted prediction artifact: a tf-idf vectorizer for
// descriptions, a one-hot account encoder, and linear scorers for category
// and payee. It is loaded once per run and read-only after that.
type Bundle struct {
	Vectorizer Vectorizer `json:"vectorizer"`
	Accounts   []string   `json:"accounts"`
	Category   Classifier `json:"category"`
	Payee      Classifier `json:"payee"`
}

type Vectorizer struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

type Classifier struct {
	Weights   [][]float64 `json:"weights"`
	Intercept []float64   `json:"intercept"`
	Classes   []string    `json:"classes"`
}

func Load(path string) (*Bundle, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b Bundle
	if err := json.Unmarshal(blob, &b); err != nil {
		return nil, fmt.Errorf("parse model bundle %s: %w", path, err)
	}
	if len(b.Vectorizer.IDF) != len(b.Vectorizer.Vocabulary) {
		return nil, fmt.Errorf("model bundle %s: idf length %d does not match vocabulary size %d",
			path, len(b.Vectorizer.IDF), len(b.Vectorizer.Vocabulary))
	}
	// Vocabulary values index into IDF and the feature vector; a bad artifact
	// must fail here, not at encode time.
	seen := make([]bool, len(b.Vectorizer.IDF))
	for term, idx := range b.Vectorizer.Vocabulary {
		if idx < 0 || idx >= len(b.Vectorizer.IDF) {
			return nil, fmt.Errorf("model bundle %s: term %q index %d outside idf range 0..%d",
				path, term, idx, len(b.Vectorizer.IDF)-1)
		}
		if seen[idx] {
			return nil, fmt.Errorf("model bundle %s: vocabulary index %d assigned to more than one term", path, idx)
		}
		seen[idx] = true
	}
	want := b.featureCount()
	for _, clf := range []Classifier{b.Category, b.Payee} {
		if len(clf.Weights) != len(clf.Classes) || len(clf.Intercept) != len(clf.Classes) {
			return nil, fmt.Errorf("model bundle %s: classifier shape mismatch", path)
		}
		for _, row := range clf.Weights {
			if len(row) != want {
				return nil, fmt.Errorf("model bundle %s: weight row has %d features, want %d", path, len(row), want)
			}
		}
	}
	return &b, nil
}

func (b *Bundle) featureCount() int {
	return len(b.Vectorizer.Vocabulary) + len(b.Accounts) + 1
}

var tokenRe = regexp.MustCompile(`\b\w\w+\b`)

// Encode builds the feature vector for one transaction: tf-idf of the
// description, then the account one-hot, then the raw amount. Terms and
// accounts outside the fitted vocabulary encode to zeros.
func (b *Bundle) Encode(account, desc string, amount float64) []float64 {
	feat := make([]float64, b.featureCount())

	counts := map[int]int{}
	for _, token := range tokenRe.FindAllString(strings.ToLower(desc), -1) {
		if idx, ok := b.Vectorizer.Vocabulary[token]; ok {
			counts[idx]++
		}
	}
	norm := 0.0
	for idx, count := range counts {
		v := float64(count) * b.Vectorizer.IDF[idx]
		feat[idx] = v
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for idx := range counts {
			feat[idx] /= norm
		}
	}

	offset := len(b.Vectorizer.Vocabulary)
	for i, name := range b.Accounts {
		if name == account {
			feat[offset+i] = 1
			break
		}
	}

	feat[len(feat)-1] = amount
	return feat
}

func (b *Bundle) PredictCategory(feat []float64) string {
	return b.Category.predict(feat)
}

func (b *Bundle) PredictPayee(feat []float64) string {
	return b.Payee.predict(feat)
}

func (c Classifier) predict(feat []float64) string {
	best := 0
	bestScore := math.Inf(-1)
	for i, row := range c.Weights {
		score := c.Intercept[i]
		for j, w := range row {
			score += w * feat[j]
		}
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	if best >= len(c.Classes) {
		return ""
	}
	return c.Classes[best]
}
