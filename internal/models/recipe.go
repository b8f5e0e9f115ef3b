package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Complexity grades how demanding a recipe is to cook.
type Complexity string

const (
	ComplexityVeryEasy Complexity = "very_easy"
	ComplexityEasy     Complexity = "easy"
	ComplexityMedium   Complexity = "medium"
	ComplexityHard     Complexity = "hard"
	ComplexityVeryHard Complexity = "very_hard"
)

// Valid reports whether c is one of the known complexity grades.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexityVeryEasy, ComplexityEasy, ComplexityMedium, ComplexityHard, ComplexityVeryHard:
		return true
	}
	return false
}

// ParseComplexity accepts loose spellings such as "Very Easy" or "very-hard".
func ParseComplexity(s string) (Complexity, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	c := Complexity(s)
	return c, c.Valid()
}

// Ingredient is one line of a recipe's ingredient list. Quantity is free text
// so that fractions and ranges survive untouched.
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Instruction is one numbered step.
type Instruction struct {
	StepNumber int    `json:"step_number"`
	Text       string `json:"text"`
}

// RenumberInstructions returns steps numbered 1..N in their current order.
func RenumberInstructions(steps []Instruction) []Instruction {
	if steps == nil {
		return nil
	}
	out := make([]Instruction, len(steps))
	for i, step := range steps {
		out[i] = Instruction{StepNumber: i + 1, Text: step.Text}
	}
	return out
}

type Recipe struct {
	ID               uuid.UUID       `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Title            string          `gorm:"size:255;not null;index" json:"title"`
	Description      *string         `gorm:"type:text" json:"description,omitempty"`
	Ingredients      IngredientList  `gorm:"not null" json:"ingredients"`
	Instructions     InstructionList `gorm:"not null" json:"instructions"`
	PrepTimeMinutes  *int            `json:"prep_time_minutes,omitempty"`
	CookTimeMinutes  *int            `json:"cook_time_minutes,omitempty"`
	Servings         *int            `json:"servings,omitempty"`
	Notes            *string         `gorm:"type:text" json:"notes,omitempty"`
	Complexity       *Complexity     `gorm:"size:20" json:"complexity,omitempty"`
	SpecialEquipment StringList      `json:"special_equipment,omitempty"`
	SourceAuthor     *string         `gorm:"size:255" json:"source_author,omitempty"`
	SourceURL        *string         `gorm:"size:2048" json:"source_url,omitempty"`
	UserID           uuid.UUID       `gorm:"type:varchar(36);not null;index" json:"user_id"`
	User             *User           `gorm:"foreignKey:UserID" json:"-"`
	CategoryID       *uuid.UUID      `gorm:"type:varchar(36);index" json:"category_id,omitempty"`
	Category         *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Tags             []Tag           `gorm:"many2many:recipe_tags;" json:"tags"`
}

// BeforeCreate assigns an id to new recipes.
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps every persisted recipe trimmed, numbered and valid.
func (r *Recipe) BeforeSave(tx *gorm.DB) error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Ingredients == nil {
		r.Ingredients = IngredientList{}
	}
	r.Instructions = InstructionList(RenumberInstructions(r.Instructions))
	if r.Instructions == nil {
		r.Instructions = InstructionList{}
	}
	return r.Validate()
}

// ValidationError lists every problem found on a recipe.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid recipe: " + strings.Join(e.Problems, "; ")
}

// IsValidationError reports whether err carries recipe validation problems.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Validate checks the field invariants of a recipe.
func (r *Recipe) Validate() error {
	var problems []string
	if strings.TrimSpace(r.Title) == "" {
		problems = append(problems, "title is required")
	}
	if r.PrepTimeMinutes != nil && *r.PrepTimeMinutes < 0 {
		problems = append(problems, "prep_time_minutes must not be negative")
	}
	if r.CookTimeMinutes != nil && *r.CookTimeMinutes < 0 {
		problems = append(problems, "cook_time_minutes must not be negative")
	}
	if r.Servings != nil && *r.Servings < 1 {
		problems = append(problems, "servings must be positive")
	}
	if r.Complexity != nil && !r.Complexity.Valid() {
		problems = append(problems, fmt.Sprintf("unknown complexity %q", *r.Complexity))
	}
	for i, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			problems = append(problems, fmt.Sprintf("ingredient %d has no name", i+1))
		}
	}
	for i, step := range r.Instructions {
		if strings.TrimSpace(step.Text) == "" {
			problems = append(problems, fmt.Sprintf("instruction %d has no text", i+1))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// CategoryName returns the name of the loaded category, if any.
func (r *Recipe) CategoryName() *string {
	if r.Category == nil {
		return nil
	}
	name := r.Category.Name
	return &name
}

// TagNames returns the names of the loaded tags.
func (r *Recipe) TagNames() []string {
	names := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		names = append(names, t.Name)
	}
	return names
}
