package oracle

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	// MaxCabinets and MaxShelvesPerCabinet are guidance for the model, not enforced limits.
	MaxCabinets          = 10
	MaxShelvesPerCabinet = 10

	promptSampleNames = 5
)

// SystemPrompt fixes the response format.
const SystemPrompt = `You organize files into cabinets (top-level categories) and shelves (categories inside a cabinet).
Respond with a single JSON object and nothing else, shaped as:
{"items":[{"id":"<input id>","description":"...","suggested_name":"","is_opaque_directory":false,
"cabinet":{"assignment_type":"existing|new","existing_id":0,"new_name":"","new_description":""},
"shelf":{"assignment_type":"existing|new","existing_id":0,"new_name":"","new_description":""}}]}
Return exactly one entry per input item, in the same order, echoing each id.`

// RenderPrompt builds the user prompt for one batch.
func RenderPrompt(req *Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze these files and directories for organization. "+
		"You have up to %d cabinets (top-level containers) and up to %d shelves per cabinet.\n\n",
		MaxCabinets, MaxShelvesPerCabinet)

	b.WriteString("Existing Cabinets:\n")
	b.WriteString(formatCabinets(req.ExistingCabinets))
	b.WriteString("\n\nExisting Shelves:\n")
	b.WriteString(formatShelves(req.ExistingShelves))
	b.WriteString("\n\nItems to analyze:\n")
	b.WriteString(formatItems(req.Items))

	b.WriteString(`

For each item, provide:
1. A brief description (one sentence)
2. A suggested_name (better name if needed, or empty string if current name is fine)
3. For directories, determine if they're opaque (homogeneous content, generated files, etc.)
4. Assign to an existing or new cabinet and shelf

For cabinet and shelf assignments:
- To use existing: set assignment_type='existing', existing_id to the ID, new_name='' and new_description=''
- To create new: set assignment_type='new', existing_id=0, new_name and new_description to actual values
- An existing shelf must belong to the cabinet the item is assigned to

Guidelines:
- Group related items together
- Use existing cabinets/shelves when appropriate
- Create new ones only when necessary
- Keep names short and descriptive
- Do not treat non-English items any differently
`)
	return b.String()
}

func formatCabinets(cabinets []CabinetInfo) string {
	if len(cabinets) == 0 {
		return "None yet"
	}
	lines := make([]string, 0, len(cabinets))
	for _, c := range cabinets {
		lines = append(lines, fmt.Sprintf("- %s (ID: %d): %s", c.Name, c.ID, c.Description))
	}
	return strings.Join(lines, "\n")
}

func formatShelves(shelves []ShelfInfo) string {
	if len(shelves) == 0 {
		return "None yet"
	}
	lines := make([]string, 0, len(shelves))
	for _, s := range shelves {
		lines = append(lines, fmt.Sprintf("- Cabinet %d, %s (ID: %d): %s", s.CabinetID, s.Name, s.ID, s.Description))
	}
	return strings.Join(lines, "\n")
}

func formatItems(items []ItemMetadata) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		var b strings.Builder
		fmt.Fprintf(&b, "%s: %s (%s)", item.ID, item.Name, item.ItemType)
		if item.Extension != "" {
			fmt.Fprintf(&b, ".%s", item.Extension)
		}
		if item.SizeBytes > 0 {
			fmt.Fprintf(&b, ", %s", humanize.Bytes(uint64(item.SizeBytes)))
		}
		if len(item.SampledContents) > 0 {
			sample := item.SampledContents
			if len(sample) > promptSampleNames {
				sample = sample[:promptSampleNames]
			}
			fmt.Fprintf(&b, ", contains: [%s...]", strings.Join(sample, ", "))
		}
		if item.ContentPreview != "" {
			fmt.Fprintf(&b, ", %s", item.ContentPreview)
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}
