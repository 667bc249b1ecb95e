package scanner

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/ports"
)

const promptTemplate = `Aşağıda iki tahmin piyasası ve koşulları var. Geçerli sonuç kombinasyonlarını (hangi koşullar birlikte TRUE olabilir) JSON array olarak yaz.
Sadece JSON döndür, başka açıklama yazma.

Piyasa A: %s
  Koşullar: %s

Piyasa B: %s
  Koşullar: %s

Örnek çıktı formatı: [{"market_a_outcome": "X", "market_b_outcome": "Y"}, ...]
`

// BuildPrompt arma el prompt de clasificación para el par a, b.
func BuildPrompt(a, b domain.Market) string {
	return fmt.Sprintf(promptTemplate, a.Label(), a.OutcomesText(), b.Label(), b.OutcomesText())
}

// ClassifierConfig son los parámetros de generación del LLM.
type ClassifierConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Classification es el veredicto sobre un par de mercados.
type Classification struct {
	Raw   string // texto devuelto por el LLM, sin tocar
	Check domain.DependencyCheck
}

// Classifier pregunta al LLM qué combinaciones de outcomes son posibles.
type Classifier struct {
	llm ports.Completer
	cfg ClassifierConfig
}

// NewClassifier crea el clasificador.
func NewClassifier(llm ports.Completer, cfg ClassifierConfig) *Classifier {
	return &Classifier{llm: llm, cfg: cfg}
}

// Classify devuelve el chequeo de dependencia del par. Una respuesta que no se
// puede parsear da una lista vacía (Valid=false), nunca un error; el error
// solo viene del completer.
func (c *Classifier) Classify(ctx context.Context, a, b domain.Market) (Classification, error) {
	text, err := c.llm.Complete(ctx, ports.CompletionRequest{
		Prompt:      BuildPrompt(a, b),
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return Classification{}, fmt.Errorf("scanner.Classify: %w", err)
	}

	combos := domain.NormalizeCombinations(domain.ParseCombinations(text))
	return Classification{
		Raw:   text,
		Check: domain.CheckDependency(combos, domain.BinaryOutcomes, domain.BinaryOutcomes),
	}, nil
}
