// Package oracle defines the classification contract and its LLM-backed implementation.
package oracle

import (
	"fmt"
	"strconv"
)

// ItemMetadata is one item as presented to the oracle. ID is the item's
// position in the batch.
type ItemMetadata struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	ItemType        string   `json:"item_type"`
	Extension       string   `json:"extension"`
	SizeBytes       int64    `json:"size_bytes"`
	SampledContents []string `json:"sampled_contents"`
	ContentPreview  string   `json:"content_preview"`
}

// CabinetInfo is an existing cabinet offered as context.
type CabinetInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ShelfInfo is an existing shelf offered as context.
type ShelfInfo struct {
	ID          int64  `json:"id"`
	CabinetID   int64  `json:"cabinet_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Request is one batch classification request.
type Request struct {
	Items            []ItemMetadata `json:"items"`
	ExistingCabinets []CabinetInfo  `json:"existing_cabinets"`
	ExistingShelves  []ShelfInfo    `json:"existing_shelves"`
}

// Response carries exactly one analysis per request item, in request order.
type Response struct {
	Items []ItemAnalysis `json:"items"`
}

// ItemAnalysis is the oracle's judgment for one item.
type ItemAnalysis struct {
	ID                string
	Description       string
	SuggestedName     string // Empty when the current name is fine
	IsOpaqueDirectory bool
	Cabinet           Assignment
	Shelf             Assignment
}

type wireAnalysis struct {
	ID                string         `json:"id"`
	Description       string         `json:"description"`
	SuggestedName     string         `json:"suggested_name"`
	IsOpaqueDirectory bool           `json:"is_opaque_directory"`
	Cabinet           wireAssignment `json:"cabinet"`
	Shelf             wireAssignment `json:"shelf"`
}

// PositionalID returns the request id for the item at index.
func PositionalID(index int) string {
	return strconv.Itoa(index)
}

// Validate checks that r answers req: same count, same ids in the same
// order, and well-formed assignments. Whether existing ids resolve is
// left to the caller, which owns the store.
func (r *Response) Validate(req *Request) error {
	if r == nil {
		return contractErrorf("items", "response missing")
	}
	if len(r.Items) != len(req.Items) {
		return contractErrorf("items", "expected %d analyses, got %d", len(req.Items), len(r.Items))
	}
	for i := range r.Items {
		field := fmt.Sprintf("items[%d]", i)
		if r.Items[i].ID != req.Items[i].ID {
			return contractErrorf(field+".id", "expected %q, got %q", req.Items[i].ID, r.Items[i].ID)
		}
		if err := validateAssignment(field+".cabinet", r.Items[i].Cabinet); err != nil {
			return err
		}
		if err := validateAssignment(field+".shelf", r.Items[i].Shelf); err != nil {
			return err
		}
	}
	return nil
}
