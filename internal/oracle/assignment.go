package oracle

import (
	"encoding/json"
	"strings"
)

const (
	assignmentExisting = "existing"
	assignmentNew      = "new"
)

// Assignment places an item into a cabinet or shelf. It is either
// Existing or New; no other implementations exist.
type Assignment interface {
	isAssignment()
}

// Existing reuses a cabinet or shelf already in the store.
type Existing struct {
	ID int64
}

// New asks for a cabinet or shelf to be created.
type New struct {
	Name        string
	Description string
}

func (Existing) isAssignment() {}
func (New) isAssignment()      {}

// wireAssignment is the loosely typed form exchanged with the oracle.
type wireAssignment struct {
	AssignmentType string `json:"assignment_type"`
	ExistingID     int64  `json:"existing_id"`
	NewName        string `json:"new_name"`
	NewDescription string `json:"new_description"`
}

// parseAssignment converts the wire form into the sum type, rejecting
// unknown discriminators and missing required fields.
func parseAssignment(field string, w wireAssignment) (Assignment, error) {
	switch strings.TrimSpace(w.AssignmentType) {
	case assignmentExisting:
		if w.ExistingID <= 0 {
			return nil, contractErrorf(field, "existing assignment needs a positive existing_id, got %d", w.ExistingID)
		}
		return Existing{ID: w.ExistingID}, nil
	case assignmentNew:
		name := strings.TrimSpace(w.NewName)
		description := strings.TrimSpace(w.NewDescription)
		if name == "" || description == "" {
			return nil, contractErrorf(field, "new assignment needs new_name and new_description")
		}
		return New{Name: name, Description: description}, nil
	default:
		return nil, contractErrorf(field, "assignment_type must be %q or %q, got %q",
			assignmentExisting, assignmentNew, w.AssignmentType)
	}
}

func toWire(a Assignment) wireAssignment {
	switch v := a.(type) {
	case Existing:
		return wireAssignment{AssignmentType: assignmentExisting, ExistingID: v.ID}
	case New:
		return wireAssignment{AssignmentType: assignmentNew, NewName: v.Name, NewDescription: v.Description}
	default:
		return wireAssignment{}
	}
}

// validateAssignment re-checks an assignment built in Go rather than decoded.
func validateAssignment(field string, a Assignment) error {
	if a == nil {
		return contractErrorf(field, "assignment missing")
	}
	_, err := parseAssignment(field, toWire(a))
	return err
}

// MarshalJSON renders an analysis in its wire form.
func (a ItemAnalysis) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireAnalysis{
		ID:                a.ID,
		Description:       a.Description,
		SuggestedName:     a.SuggestedName,
		IsOpaqueDirectory: a.IsOpaqueDirectory,
		Cabinet:           toWire(a.Cabinet),
		Shelf:             toWire(a.Shelf),
	})
}

// UnmarshalJSON decodes the wire form and converts both assignments.
// The position of the item is not known here; errors name the field only.
func (a *ItemAnalysis) UnmarshalJSON(data []byte) error {
	var w wireAnalysis
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	cabinet, err := parseAssignment("cabinet", w.Cabinet)
	if err != nil {
		return err
	}
	shelf, err := parseAssignment("shelf", w.Shelf)
	if err != nil {
		return err
	}
	*a = ItemAnalysis{
		ID:                w.ID,
		Description:       w.Description,
		SuggestedName:     w.SuggestedName,
		IsOpaqueDirectory: w.IsOpaqueDirectory,
		Cabinet:           cabinet,
		Shelf:             shelf,
	}
	return nil
}
