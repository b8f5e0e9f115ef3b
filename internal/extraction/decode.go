// Package extraction turns untyped recipe documents, whether produced by an
// AI provider or read from a backup file, into well-formed recipe drafts.
// Nothing here performs I/O; malformed input yields warnings, never errors.
package extraction

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pageza/larder/backend/internal/models"
)

// Draft is the recipe shape shared by extraction results and backup records.
// Optional fields are nil when absent.
type Draft struct {
	Title            string               `json:"title"`
	Description      *string              `json:"description,omitempty"`
	Ingredients      []models.Ingredient  `json:"ingredients"`
	Instructions     []models.Instruction `json:"instructions"`
	PrepTimeMinutes  *int                 `json:"prep_time_minutes,omitempty"`
	CookTimeMinutes  *int                 `json:"cook_time_minutes,omitempty"`
	Servings         *int                 `json:"servings,omitempty"`
	Notes            *string              `json:"notes,omitempty"`
	Complexity       *models.Complexity   `json:"complexity,omitempty"`
	SpecialEquipment []string             `json:"special_equipment,omitempty"`
	SourceAuthor     *string              `json:"source_author,omitempty"`
	SourceURL        *string              `json:"source_url,omitempty"`
}

// Decode reads a draft out of a loosely typed document. Fields that cannot be
// coerced are dropped and described in the returned warnings.
func Decode(raw map[string]interface{}) (Draft, []string) {
	d := &decoder{raw: raw}
	var draft Draft

	if title, ok := d.text("title"); ok {
		draft.Title = title
	}
	draft.Description = d.optionalText("description")
	draft.Notes = d.optionalText("notes")
	draft.SourceAuthor = d.optionalText("source_author")
	draft.SourceURL = d.optionalText("source_url")

	draft.Ingredients = d.ingredients()
	draft.Instructions = d.instructions()

	draft.PrepTimeMinutes = d.count("prep_time_minutes", 0)
	draft.CookTimeMinutes = d.count("cook_time_minutes", 0)
	draft.Servings = d.count("servings", 1)
	draft.Complexity = d.complexity()
	draft.SpecialEquipment = d.stringList("special_equipment")

	return draft, d.warnings
}

type decoder struct {
	raw      map[string]interface{}
	warnings []string
}

func (d *decoder) warn(format string, args ...interface{}) {
	d.warnings = append(d.warnings, fmt.Sprintf(format, args...))
}

// text returns the trimmed string at key; ok is false when it is absent,
// empty, or not a string.
func (d *decoder) text(key string) (string, bool) {
	v, present := d.raw[key]
	if !present || v == nil {
		return "", false
	}
	s, isString := v.(string)
	if !isString {
		d.warn("Field %s is not text and was dropped", key)
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func (d *decoder) optionalText(key string) *string {
	s, ok := d.text(key)
	if !ok {
		return nil
	}
	return &s
}

func (d *decoder) list(key string) ([]interface{}, bool) {
	v, present := d.raw[key]
	if !present || v == nil {
		return nil, false
	}
	items, ok := v.([]interface{})
	if !ok {
		d.warn("Field %s is not a list and was dropped", key)
		return nil, false
	}
	return items, true
}

func (d *decoder) ingredients() []models.Ingredient {
	items, ok := d.list("ingredients")
	if !ok {
		return nil
	}
	out := make([]models.Ingredient, 0, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case string:
			if name := strings.TrimSpace(v); name != "" {
				out = append(out, models.Ingredient{Name: name})
				continue
			}
		case map[string]interface{}:
			ing := models.Ingredient{
				Name:     looseText(v["name"]),
				Quantity: looseText(v["quantity"]),
				Unit:     looseText(v["unit"]),
				Notes:    looseText(v["notes"]),
			}
			if ing.Name != "" {
				out = append(out, ing)
				continue
			}
		}
		d.warn("Ingredient %d has no name and was dropped", i+1)
	}
	return out
}

func (d *decoder) instructions() []models.Instruction {
	items, ok := d.list("instructions")
	if !ok {
		return nil
	}
	out := make([]models.Instruction, 0, len(items))
	for i, item := range items {
		var text string
		switch v := item.(type) {
		case string:
			text = strings.TrimSpace(v)
		case map[string]interface{}:
			text = looseText(v["text"])
		}
		if text == "" {
			d.warn("Instruction %d has no text and was dropped", i+1)
			continue
		}
		out = append(out, models.Instruction{Text: text})
	}
	return models.RenumberInstructions(out)
}

// count coerces a number or numeric string to an integer no smaller than min.
func (d *decoder) count(key string, min int) *int {
	v, present := d.raw[key]
	if !present || v == nil {
		return nil
	}
	n, ok := toInt(v)
	if !ok {
		d.warn("Field %s is not a number and was dropped", key)
		return nil
	}
	if n < min {
		d.warn("Field %s must be at least %d and was dropped", key, min)
		return nil
	}
	return &n
}

func (d *decoder) complexity() *models.Complexity {
	s, ok := d.text("complexity")
	if !ok {
		return nil
	}
	c, valid := models.ParseComplexity(s)
	if !valid {
		d.warn("Complexity %q is not recognised and was dropped", s)
		return nil
	}
	return &c
}

func (d *decoder) stringList(key string) []string {
	if s, isString := d.raw[key].(string); isString {
		if s = strings.TrimSpace(s); s != "" {
			return []string{s}
		}
		return nil
	}
	items, ok := d.list(key)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		s, isString := item.(string)
		if !isString {
			d.warn("Non-text entry in %s was dropped", key)
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// looseText renders scalar values as trimmed text. Ingredient quantities are
// opaque, so a numeric 1.5 becomes "1.5" rather than being validated.
func looseText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	}
	return ""
}

func toInt(v interface{}) (int, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		return t, true
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	// floor keeps negative fractions below zero so range checks still see them
	return int(math.Floor(f)), true
}
