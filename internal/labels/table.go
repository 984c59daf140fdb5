// Package labels loads the label table and the index remapping produced by the
// training pipeline and resolves compact model indices to LaTeX strings.
package labels

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const labelsSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"minProperties": 1,
	"propertyNames": {"pattern": "^(0|[1-9][0-9]*)$"},
	"additionalProperties": {
		"type": "object",
		"required": ["latex"],
		"properties": {
			"latex": {"type": "string", "minLength": 1},
			"unicode": {"type": "string"}
		}
	}
}`

const mappingSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"minProperties": 1,
	"propertyNames": {"pattern": "^(0|[1-9][0-9]*)$"},
	"additionalProperties": {"type": "integer", "minimum": 0}
}`

var (
	labelsValidator  = jsonschema.MustCompileString("labels.json", labelsSchema)
	mappingValidator = jsonschema.MustCompileString("reverse_mapping.json", mappingSchema)
)

// ErrMalformed is returned when a label or mapping file fails validation.
var ErrMalformed = errors.New("malformed label table")

// Entry is one symbol class of the training dataset.
type Entry struct {
	LaTeX   string `json:"latex"`
	Unicode string `json:"unicode,omitempty"`
}

// Resolution is the result of resolving a compact class index.
type Resolution struct {
	Index   int
	LabelID int
	Entry
}

// Table resolves compact indices through the remapping to label entries.
// It is immutable after construction and safe for concurrent use.
type Table struct {
	entries  map[int]Entry
	remap    map[int]int
	identity bool
}

// Load reads the label table and, when mappingPath is not empty, the remapping table.
func Load(labelsPath, mappingPath string) (*Table, error) {
	labelsData, err := os.ReadFile(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}

	var mappingData []byte
	if mappingPath != "" {
		mappingData, err = os.ReadFile(mappingPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read index mapping: %w", err)
		}
	}

	return Parse(labelsData, mappingData)
}

// Parse builds a Table from serialized label and mapping documents. A nil mapping
// means compact indices are the original label ids.
func Parse(labelsData, mappingData []byte) (*Table, error) {
	var rawLabels map[string]Entry
	if err := decodeValidated(labelsData, labelsValidator, &rawLabels); err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}

	t := &Table{entries: make(map[int]Entry, len(rawLabels))}
	for key, entry := range rawLabels {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("labels: %w: key %q", ErrMalformed, key)
		}
		t.entries[id] = entry
	}

	if mappingData == nil {
		t.identity = true
		return t, nil
	}

	var rawMapping map[string]int
	if err := decodeValidated(mappingData, mappingValidator, &rawMapping); err != nil {
		return nil, fmt.Errorf("index mapping: %w", err)
	}

	t.remap = make(map[int]int, len(rawMapping))
	seen := make(map[int]int, len(rawMapping))
	for key, labelID := range rawMapping {
		index, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("index mapping: %w: key %q", ErrMalformed, key)
		}
		if prev, dup := seen[labelID]; dup {
			return nil, fmt.Errorf("index mapping: %w: indices %d and %d both map to label %d",
				ErrMalformed, min(prev, index), max(prev, index), labelID)
		}
		seen[labelID] = index
		t.remap[index] = labelID
	}

	return t, nil
}

func decodeValidated(data []byte, schema *jsonschema.Schema, out any) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// Resolve maps a compact class index to its label. It reports false when either
// the remapping or the label table has no entry.
func (t *Table) Resolve(index int) (Resolution, bool) {
	labelID := index
	if !t.identity {
		id, ok := t.remap[index]
		if !ok {
			return Resolution{Index: index, LabelID: -1}, false
		}
		labelID = id
	}

	entry, ok := t.entries[labelID]
	if !ok || entry.LaTeX == "" {
		return Resolution{Index: index, LabelID: labelID}, false
	}
	return Resolution{Index: index, LabelID: labelID, Entry: entry}, true
}

// Len returns the number of compact class indices the table knows about.
func (t *Table) Len() int {
	if t.identity {
		return len(t.entries)
	}
	return len(t.remap)
}

// Identity reports whether compact indices are used as label ids directly.
func (t *Table) Identity() bool {
	return t.identity
}

// Indices returns the known compact indices in ascending order.
func (t *Table) Indices() []int {
	var out []int
	if t.identity {
		out = make([]int, 0, len(t.entries))
		for id := range t.entries {
			out = append(out, id)
		}
	} else {
		out = make([]int, 0, len(t.remap))
		for index := range t.remap {
			out = append(out, index)
		}
	}
	sort.Ints(out)
	return out
}

// LabelIDs returns the label ids present in the label file in ascending order.
func (t *Table) LabelIDs() []int {
	out := make([]int, 0, len(t.entries))
	for id := range t.entries {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Entry returns the label entry for an original label id.
func (t *Table) Entry(labelID int) (Entry, bool) {
	e, ok := t.entries[labelID]
	return e, ok
}
