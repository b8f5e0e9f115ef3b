package ai

import "fmt"

const systemPrompt = `You extract structured recipes from images and text.

Return one JSON object with these fields:
- title (string, required)
- description (string)
- ingredients (array of {name, quantity, unit, notes}; quantity stays text such as "1/2" or "2-3")
- instructions (array of {step_number, text}, numbered from 1)
- prep_time_minutes, cook_time_minutes (integers, minutes)
- servings (integer; use the lower bound of a range)
- notes (string)
- complexity (one of very_easy, easy, medium, hard, very_hard)
- special_equipment (array of strings; only tools beyond a basic kitchen)
- confidence (number 0 to 1: 1.0 when everything is clearly stated, below 0.4 when the source is very incomplete)
- warnings (array of strings naming anything missing, unclear or cut off)

Only include information that is stated or clearly implied. Respond with JSON only.`

const imagePrompt = "Extract the recipe from this image."

func textPrompt(text string) string {
	return fmt.Sprintf("Extract the recipe from the following text.\n\nText content:\n%s", text)
}
