package domain

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Etiquetas canónicas de outcome. Yes/No se aceptan como sinónimos.
const (
	OutcomeYes = "Evet"
	OutcomeNo  = "Hayır"
)

// BinaryOutcomes es el número de outcomes de un mercado binario.
const BinaryOutcomes = 2

// OutcomeCombination es un estado conjunto que puede darse a la vez en ambos mercados.
type OutcomeCombination struct {
	MarketA string `json:"market_a_outcome"`
	MarketB string `json:"market_b_outcome"`
}

var outcomeVocabulary = map[string]int{
	OutcomeYes: 0,
	"Yes":      0,
	OutcomeNo:  1,
	"No":       1,
}

// outcomeSide devuelve 0 para YES y 1 para NO.
func outcomeSide(label string) (int, bool) {
	side, ok := outcomeVocabulary[strings.TrimSpace(label)]
	return side, ok
}

// IsOutcomeLabel indica si la etiqueta pertenece al vocabulario de dos valores.
func IsOutcomeLabel(label string) bool {
	_, ok := outcomeSide(label)
	return ok
}

// NormalizeOutcome mapea "yes"/"no" (sin importar mayúsculas) a Evet/Hayır.
// Cualquier otra cadena se devuelve sin tocar.
func NormalizeOutcome(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "yes":
		return OutcomeYes
	case "no":
		return OutcomeNo
	}
	return label
}

// NormalizeCombinations aplica NormalizeOutcome a ambos lados de cada combinación.
func NormalizeCombinations(combos []OutcomeCombination) []OutcomeCombination {
	out := make([]OutcomeCombination, len(combos))
	for i, c := range combos {
		out[i] = OutcomeCombination{
			MarketA: NormalizeOutcome(c.MarketA),
			MarketB: NormalizeOutcome(c.MarketB),
		}
	}
	return out
}

// ValidateCombinations descarta las combinaciones con alguna etiqueta fuera del vocabulario.
func ValidateCombinations(combos []OutcomeCombination) []OutcomeCombination {
	out := make([]OutcomeCombination, 0, len(combos))
	for _, c := range combos {
		if IsOutcomeLabel(c.MarketA) && IsOutcomeLabel(c.MarketB) {
			out = append(out, c)
		}
	}
	return out
}

// DependencyCheck es el resultado de la validación de dependencia.
type DependencyCheck struct {
	Valid        bool
	Dependent    bool
	Combinations []OutcomeCombination // solo las válidas
}

// CheckDependency decide si dos mercados con nA y nB outcomes son dependientes.
// Mercados independientes admiten las nA·nB combinaciones; cualquier restricción
// real entre ellos excluye al menos una.
func CheckDependency(combos []OutcomeCombination, nA, nB int) DependencyCheck {
	valid := ValidateCombinations(combos)
	check := DependencyCheck{
		Valid:        len(valid) > 0,
		Combinations: valid,
	}
	check.Dependent = check.Valid && len(valid) < nA*nB
	return check
}

var (
	jsonFence = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	bareFence = regexp.MustCompile("(?s)```\\s*(.*?)```")
)

// ParseCombinations extrae la lista de combinaciones de la respuesta del LLM.
// Acepta JSON plano o dentro de un bloque ``` (preferencia por ```json).
// Cualquier fallo de parseo devuelve una lista vacía.
func ParseCombinations(text string) []OutcomeCombination {
	raw := strings.TrimSpace(text)
	if m := jsonFence.FindStringSubmatch(raw); m != nil {
		raw = strings.TrimSpace(m[1])
	} else if m := bareFence.FindStringSubmatch(raw); m != nil {
		raw = strings.TrimSpace(m[1])
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return []OutcomeCombination{}
	}

	out := make([]OutcomeCombination, 0, len(elems))
	for _, e := range elems {
		var obj map[string]any
		if err := json.Unmarshal(e, &obj); err != nil {
			// no es un objeto: se conserva vacío y la validación lo descarta
			out = append(out, OutcomeCombination{})
			continue
		}
		out = append(out, OutcomeCombination{
			MarketA: stringField(obj, "market_a_outcome"),
			MarketB: stringField(obj, "market_b_outcome"),
		})
	}
	return out
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
