package extraction

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/pageza/larder/backend/internal/models"
)

// Source identifies the modality an extraction came from.
type Source string

const (
	SourceImage     Source = "image"
	SourceURL       Source = "url"
	SourceText      Source = "text"
	SourceSchemaOrg Source = "schema_org"
)

const (
	// UntitledRecipe replaces a missing title.
	UntitledRecipe = "Untitled Recipe"

	missingFieldPenalty = 0.2
)

// Result is a staged extraction. It never carries an id; the client keeps it
// until the user saves it as a recipe.
type Result struct {
	Draft
	Confidence float64  `json:"confidence"`
	Warnings   []string `json:"warnings"`
	Source     Source   `json:"source"`
}

// Normalize coerces a raw provider document into a Result. It never fails:
// every problem becomes a warning on a best-effort draft.
func Normalize(raw map[string]interface{}, source Source) Result {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	warnings := providerWarnings(raw["warnings"])

	draft, decodeWarnings := Decode(raw)
	warnings = append(warnings, decodeWarnings...)

	missing := 0
	if draft.Title == "" {
		missing++
		draft.Title = UntitledRecipe
		warnings = append(warnings, "No title could be extracted")
	}
	if len(draft.Ingredients) == 0 {
		missing++
		draft.Ingredients = []models.Ingredient{}
		warnings = append(warnings, "No ingredients could be extracted")
	}
	if len(draft.Instructions) == 0 {
		missing++
		draft.Instructions = []models.Instruction{}
		warnings = append(warnings, "No instructions could be extracted")
	}

	estimate := estimateConfidence(missing)
	confidence := estimate
	if v, present := raw["confidence"]; present && v != nil {
		provided, ok := v.(float64)
		switch {
		case !ok || math.IsNaN(provided) || provided < 0 || provided > 1:
			warnings = append(warnings, "Provider confidence was out of range and was replaced by an estimate")
		default:
			// A provider cannot be more sure than the fields it actually returned.
			confidence = math.Min(provided, estimate)
		}
	}

	if warnings == nil {
		warnings = []string{}
	}
	return Result{
		Draft:      draft,
		Confidence: confidence,
		Warnings:   warnings,
		Source:     source,
	}
}

// NormalizeJSON is Normalize over an encoded document. Bodies that are not a
// JSON object produce the placeholder draft with a warning.
func NormalizeJSON(data []byte, source Source) Result {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(stripCodeFence(string(data))), &raw); err != nil || raw == nil {
		result := Normalize(nil, source)
		result.Warnings = append([]string{"Extraction output was not a JSON object"}, result.Warnings...)
		return result
	}
	return Normalize(raw, source)
}

func estimateConfidence(missing int) float64 {
	c := 1.0 - missingFieldPenalty*float64(missing)
	if c < 0 {
		return 0
	}
	return math.Round(c*100) / 100
}

func providerWarnings(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, isString := item.(string); isString && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// stripCodeFence removes a surrounding ``` or ```json fence that chat models
// tend to wrap JSON answers in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
