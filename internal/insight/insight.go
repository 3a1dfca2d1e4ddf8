// Package insight builds a compact digest of recent transactions and asks a
// Gemini model for short spending advice.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"aruskas/internal/classify"
	"aruskas/internal/core"
	"aruskas/internal/log"
)

const (
	DefaultModel = "gemini-2.0-flash"
	DefaultLimit = 50

	temperature = 0.7
)

var (
	ErrNoTransactions = errors.New("no transactions to analyse")
	ErrEmptyResponse  = errors.New("empty response from model")
)

const instructions = `Analisa transaksi berikut dan berikan saran keuangan singkat (maksimal 2 kalimat) dalam Bahasa Indonesia.
Fokus pada penghematan atau pola pengeluaran yang tidak wajar. Jangan terlalu kaku.

Data Transaksi:
`

// Row is the simplified form of a transaction sent to the model.
type Row struct {
	Date     string  `json:"date"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Type     string  `json:"type"`
}

// Rows digests at most limit transactions, keeping their order. A limit of
// zero or less means DefaultLimit.
func Rows(txs []core.Transaction, cls *classify.Classifier, limit int) []Row {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if cls == nil {
		cls = classify.Default
	}
	if len(txs) > limit {
		txs = txs[:limit]
	}
	out := make([]Row, 0, len(txs))
	for _, tx := range txs {
		c := cls.Classify(tx)
		out = append(out, Row{
			Date:     tx.Date.Key(),
			Category: c.Label,
			Amount:   tx.Amount.Units(),
			Type:     string(c.Polarity),
		})
	}
	return out
}

// Prompt renders the instruction followed by the rows as JSON.
func Prompt(rows []Row) (string, error) {
	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("marshal rows: %w", err)
	}
	return instructions + string(data), nil
}

// Generator is the subset of *genai.Models used here.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Advisor struct {
	gen    Generator
	model  string
	limit  int
	logger *log.Logger
}

func New(gen Generator, model string, limit int, logger *log.Logger) *Advisor {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Advisor{gen: gen, model: model, limit: limit, logger: logger.WithComponent(log.ComponentInsight)}
}

// NewGemini creates an Advisor backed by the Gemini API.
func NewGemini(ctx context.Context, apiKey, model string, limit int, logger *log.Logger) (*Advisor, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return New(client.Models, model, limit, logger), nil
}

// Advise returns the model's advice for txs.
func (a *Advisor) Advise(ctx context.Context, txs []core.Transaction, cls *classify.Classifier) (string, error) {
	rows := Rows(txs, cls, a.limit)
	if len(rows) == 0 {
		return "", ErrNoTransactions
	}
	prompt, err := Prompt(rows)
	if err != nil {
		return "", err
	}

	start := time.Now()
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: prompt}}}}
	resp, err := a.gen.GenerateContent(ctx, a.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](temperature),
	})
	if err != nil {
		a.logger.ErrorContext(ctx, "Insight generation failed",
			log.NewFields().WithOperation(log.OpGenerate).WithError(err, log.ErrorTypeNetwork).ToSlice()...)
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	a.logger.DebugContext(ctx, "Insight generated",
		append(log.NewFields().WithOperation(log.OpGenerate).WithDuration(time.Since(start)).ToSlice(),
			"model", a.model, "rows", len(rows))...)
	return text, nil
}
