// Package backup moves recipes between catalogs as portable JSON documents
// and merges imported records into the catalog under a conflict strategy.
package backup

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pageza/larder/backend/internal/extraction"
	"github.com/pageza/larder/backend/internal/models"
)

// FormatVersion is written into every exported document.
const FormatVersion = "1.0"

var supportedVersions = map[string]bool{
	FormatVersion: true,
}

// Document is the on-disk backup format.
type Document struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Recipes    []Record  `json:"recipes"`
}

// Record is one recipe with its category and tags referenced by name, since
// ids do not carry over between catalogs.
type Record struct {
	extraction.Draft
	CategoryName   *string    `json:"category_name,omitempty"`
	TagNames       []string   `json:"tag_names"`
	OriginalAuthor *string    `json:"original_author,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
}

// DocumentError rejects a whole file before any record is processed.
type DocumentError struct {
	Reason string
	Err    error
}

func (e *DocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid backup file: %s: %v", e.Reason, e.Err)
	}
	return "invalid backup file: " + e.Reason
}

func (e *DocumentError) Unwrap() error { return e.Err }

// RecordError describes a record that could not be read from the file.
type RecordError struct {
	Index  int
	Title  string
	Reason string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %s", e.Index+1, e.Reason)
}

// Entry is one record of a parsed document, in file order. Exactly one of
// Record and Err is set.
type Entry struct {
	Index    int
	Record   *Record
	Warnings []string
	Err      *RecordError
}

// Title returns the record title, or "" for unreadable records.
func (e Entry) Title() string {
	if e.Record == nil {
		return ""
	}
	return e.Record.Title
}

// Parsed is a deserialized document.
type Parsed struct {
	Version    string
	ExportedAt *time.Time
	Entries    []Entry
}

// Total is the number of records in the file, readable or not.
func (p *Parsed) Total() int { return len(p.Entries) }

// Pending returns the readable records.
func (p *Parsed) Pending() []Entry {
	var out []Entry
	for _, e := range p.Entries {
		if e.Record != nil {
			out = append(out, e)
		}
	}
	return out
}

// Invalid returns the records that were rejected while reading.
func (p *Parsed) Invalid() []*RecordError {
	var out []*RecordError
	for _, e := range p.Entries {
		if e.Err != nil {
			out = append(out, e.Err)
		}
	}
	return out
}

// Serialize builds a document from recipes with their Category, Tags and
// User associations loaded.
func Serialize(recipes []models.Recipe, exportedAt time.Time) *Document {
	doc := &Document{
		Version:    FormatVersion,
		ExportedAt: exportedAt.UTC(),
		Recipes:    make([]Record, 0, len(recipes)),
	}
	for i := range recipes {
		doc.Recipes = append(doc.Recipes, recordFromRecipe(&recipes[i]))
	}
	return doc
}

func recordFromRecipe(r *models.Recipe) Record {
	tags := r.TagNames()
	sort.Strings(tags)

	rec := Record{
		Draft: extraction.Draft{
			Title:            r.Title,
			Description:      r.Description,
			Ingredients:      []models.Ingredient(r.Ingredients),
			Instructions:     models.RenumberInstructions(r.Instructions),
			PrepTimeMinutes:  r.PrepTimeMinutes,
			CookTimeMinutes:  r.CookTimeMinutes,
			Servings:         r.Servings,
			Notes:            r.Notes,
			Complexity:       r.Complexity,
			SpecialEquipment: []string(r.SpecialEquipment),
			SourceAuthor:     r.SourceAuthor,
			SourceURL:        r.SourceURL,
		},
		CategoryName: r.CategoryName(),
		TagNames:     tags,
	}
	if rec.Ingredients == nil {
		rec.Ingredients = []models.Ingredient{}
	}
	if rec.Instructions == nil {
		rec.Instructions = []models.Instruction{}
	}
	if r.User != nil {
		author := r.User.Username
		rec.OriginalAuthor = &author
	}
	if !r.CreatedAt.IsZero() {
		created := r.CreatedAt.UTC()
		rec.CreatedAt = &created
	}
	return rec
}

// Deserialize reads a backup file. Only problems with the document as a whole
// return an error; unreadable records become entries with Err set.
func Deserialize(data []byte) (*Parsed, error) {
	var root interface{}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, &DocumentError{Reason: "file is not valid JSON", Err: err}
	}
	obj, ok := root.(map[string]interface{})
	if !ok {
		return nil, &DocumentError{Reason: "root must be a JSON object"}
	}

	version, exportedAt := documentHeader(obj)
	if version == "" {
		return nil, &DocumentError{Reason: "format version is missing"}
	}
	if !supportedVersions[version] {
		return nil, &DocumentError{Reason: fmt.Sprintf("unsupported format version %q", version)}
	}

	items, ok := obj["recipes"].([]interface{})
	if !ok {
		return nil, &DocumentError{Reason: "recipes array is missing"}
	}

	parsed := &Parsed{
		Version:    version,
		ExportedAt: exportedAt,
		Entries:    make([]Entry, 0, len(items)),
	}
	for i, item := range items {
		parsed.Entries = append(parsed.Entries, parseRecord(i, item))
	}
	return parsed, nil
}

// documentHeader reads the version and export time, accepting the older
// layout that kept them under a metadata object.
func documentHeader(obj map[string]interface{}) (string, *time.Time) {
	header := obj
	version, _ := obj["version"].(string)
	if version == "" {
		if meta, ok := obj["metadata"].(map[string]interface{}); ok {
			header = meta
			version, _ = meta["format_version"].(string)
		}
	}
	var exportedAt *time.Time
	if s, ok := header["exported_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			exportedAt = &t
		}
	}
	return strings.TrimSpace(version), exportedAt
}

func parseRecord(index int, item interface{}) Entry {
	obj, ok := item.(map[string]interface{})
	if !ok {
		return Entry{Index: index, Err: &RecordError{Index: index, Reason: "record is not an object"}}
	}

	draft, warnings := extraction.Decode(obj)
	if draft.Title == "" {
		return Entry{Index: index, Err: &RecordError{Index: index, Reason: "missing title"}}
	}
	if draft.Ingredients == nil {
		draft.Ingredients = []models.Ingredient{}
	}
	if draft.Instructions == nil {
		draft.Instructions = []models.Instruction{}
	}

	rec := &Record{
		Draft:          draft,
		CategoryName:   nameField(obj["category_name"]),
		TagNames:       nameList(obj["tag_names"]),
		OriginalAuthor: nameField(obj["original_author"]),
	}
	if s, ok := obj["created_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			rec.CreatedAt = &t
		}
	}
	return Entry{Index: index, Record: rec, Warnings: warnings}
}

func nameField(v interface{}) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

// nameList keeps the first occurrence of each non-empty name.
func nameList(v interface{}) []string {
	items, _ := v.([]interface{})
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		name := nameField(item)
		if name == nil || seen[*name] {
			continue
		}
		seen[*name] = true
		out = append(out, *name)
	}
	return out
}
