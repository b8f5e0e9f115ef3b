package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pageza/larder/backend/internal/models"
)

// SchemaOrgConfidence is reported for drafts built from structured page data.
const SchemaOrgConfidence = 0.9

var (
	isoDuration   = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)
	firstNumber   = regexp.MustCompile(`\d+`)
	leadingAmount = regexp.MustCompile(`^(\d+\s+\d+/\d+|\d+/\d+|\d+(?:\.\d+)?(?:\s*[-–]\s*\d+(?:\.\d+)?)?|[½¼¾⅓⅔⅛])\s*`)
	metricAside   = regexp.MustCompile(`\(\d+\s*g?\)`)
)

var ingredientUnits = map[string]string{
	"cup": "cup", "cups": "cups",
	"tablespoon": "tablespoon", "tablespoons": "tablespoons", "tbsp": "tbsp",
	"teaspoon": "teaspoon", "teaspoons": "teaspoons", "tsp": "tsp",
	"ounce": "ounce", "ounces": "ounces", "oz": "oz",
	"pound": "pound", "pounds": "pounds", "lb": "lb", "lbs": "lbs",
	"gram": "gram", "grams": "grams", "g": "g",
	"kilogram": "kilogram", "kilograms": "kilograms", "kg": "kg",
	"milliliter": "milliliter", "milliliters": "milliliters", "ml": "ml",
	"liter": "liter", "liters": "liters", "l": "l",
	"pint": "pint", "pints": "pints", "quart": "quart", "quarts": "quarts",
	"gallon": "gallon", "gallons": "gallons",
	"pinch": "pinch", "dash": "dash",
	"slice": "slice", "slices": "slices", "piece": "piece", "pieces": "pieces",
	"clove": "clove", "cloves": "cloves", "stalk": "stalk", "stalks": "stalks",
	"sprig": "sprig", "sprigs": "sprigs", "bunch": "bunch", "bunches": "bunches",
	"head": "head", "heads": "heads", "can": "can", "cans": "cans",
	"package": "package", "packages": "packages", "stick": "stick", "sticks": "sticks",
}

// FindRecipeNode searches decoded JSON-LD for a schema.org Recipe object,
// looking through top-level arrays and @graph containers.
func FindRecipeNode(doc interface{}) (map[string]interface{}, bool) {
	switch v := doc.(type) {
	case []interface{}:
		for _, item := range v {
			if node, ok := FindRecipeNode(item); ok {
				return node, true
			}
		}
	case map[string]interface{}:
		if hasType(v["@type"], "Recipe") {
			return v, true
		}
		if graph, ok := v["@graph"]; ok {
			return FindRecipeNode(graph)
		}
	}
	return nil, false
}

func hasType(t interface{}, want string) bool {
	switch v := t.(type) {
	case string:
		return v == want
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

// FromSchemaOrg maps a schema.org Recipe node into the raw document shape
// accepted by Normalize.
func FromSchemaOrg(node map[string]interface{}, pageURL string) map[string]interface{} {
	raw := map[string]interface{}{
		"confidence": SchemaOrgConfidence,
	}
	var warnings []interface{}

	if name, ok := node["name"].(string); ok {
		raw["title"] = name
	}
	if desc, ok := node["description"].(string); ok {
		raw["description"] = desc
	}
	if author := authorName(node["author"]); author != "" {
		raw["source_author"] = author
	}
	if pageURL != "" {
		raw["source_url"] = pageURL
	}

	for _, field := range []struct{ from, to, label string }{
		{"prepTime", "prep_time_minutes", "prep time"},
		{"cookTime", "cook_time_minutes", "cook time"},
	} {
		value, present := node[field.from].(string)
		if !present || value == "" {
			continue
		}
		if minutes, ok := ParseISODuration(value); ok {
			raw[field.to] = float64(minutes)
		} else {
			warnings = append(warnings, fmt.Sprintf("Could not parse %s: %s", field.label, value))
		}
	}

	if servings, ok := yieldServings(node["recipeYield"]); ok {
		raw["servings"] = float64(servings)
	}

	var ingredients []interface{}
	for _, line := range textItems(node["recipeIngredient"]) {
		ing := ParseIngredientLine(line)
		ingredients = append(ingredients, map[string]interface{}{
			"name":     ing.Name,
			"quantity": ing.Quantity,
			"unit":     ing.Unit,
			"notes":    ing.Notes,
		})
	}
	if ingredients != nil {
		raw["ingredients"] = ingredients
	}

	if steps := instructionTexts(node["recipeInstructions"]); len(steps) > 0 {
		list := make([]interface{}, len(steps))
		for i, s := range steps {
			list[i] = s
		}
		raw["instructions"] = list
	}

	if warnings != nil {
		raw["warnings"] = warnings
	}
	return raw
}

// ParseISODuration converts durations such as PT1H30M to whole minutes.
// Seconds are ignored; a zero duration is reported as unparseable.
func ParseISODuration(s string) (int, bool) {
	m := isoDuration.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return 0, false
	}
	part := func(i int) int {
		if m[i] == "" {
			return 0
		}
		n, _ := strconv.Atoi(m[i])
		return n
	}
	total := part(1)*24*60 + part(2)*60 + part(3)
	if total <= 0 {
		return 0, false
	}
	return total, true
}

func yieldServings(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t >= 1 {
			return int(t), true
		}
	case string:
		if m := firstNumber.FindString(t); m != "" {
			n, err := strconv.Atoi(m)
			return n, err == nil && n >= 1
		}
	case []interface{}:
		for _, item := range t {
			if n, ok := yieldServings(item); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func authorName(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]interface{}:
		if name, ok := t["name"].(string); ok {
			return strings.TrimSpace(name)
		}
	case []interface{}:
		for _, item := range t {
			if name := authorName(item); name != "" {
				return name
			}
		}
	}
	return ""
}

func textItems(v interface{}) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []interface{}:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

// instructionTexts flattens recipeInstructions, which may be a single string,
// a list of strings, HowToStep objects, or HowToSection groups of steps.
func instructionTexts(v interface{}) []string {
	switch t := v.(type) {
	case string:
		var out []string
		for _, line := range strings.Split(t, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out
	case []interface{}:
		var out []string
		for _, item := range t {
			switch step := item.(type) {
			case string:
				if s := strings.TrimSpace(step); s != "" {
					out = append(out, s)
				}
			case map[string]interface{}:
				if hasType(step["@type"], "HowToSection") {
					out = append(out, instructionTexts(step["itemListElement"])...)
					continue
				}
				if text, ok := step["text"].(string); ok && strings.TrimSpace(text) != "" {
					out = append(out, strings.TrimSpace(text))
				}
			}
		}
		return out
	}
	return nil
}

// ParseIngredientLine splits "2 cups flour, sifted" into its quantity, unit,
// name and trailing note. Lines without a leading amount keep their full text
// as the name.
func ParseIngredientLine(line string) models.Ingredient {
	line = strings.TrimSpace(line)
	var ing models.Ingredient
	rest := line

	if m := leadingAmount.FindStringSubmatchIndex(rest); m != nil {
		ing.Quantity = strings.TrimSpace(rest[m[2]:m[3]])
		rest = rest[m[1]:]
	}
	if ing.Quantity != "" {
		if fields := strings.Fields(rest); len(fields) > 0 {
			word := strings.ToLower(strings.TrimSuffix(fields[0], "."))
			if unit, ok := ingredientUnits[word]; ok {
				ing.Unit = unit
				rest = strings.TrimSpace(rest[len(fields[0]):])
			}
		}
	}

	rest = strings.TrimSpace(metricAside.ReplaceAllString(rest, ""))
	if comma := strings.Index(rest, ","); comma > 0 {
		ing.Notes = strings.TrimSpace(rest[comma+1:])
		rest = rest[:comma]
	}
	ing.Name = strings.Trim(rest, " ,")
	if ing.Name == "" {
		ing = models.Ingredient{Name: line}
	}
	return ing
}
