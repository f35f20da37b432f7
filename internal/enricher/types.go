package enricher

// ItemType is how an enriched path is presented for classification.
type ItemType string

const (
	ItemFile            ItemType = "file"
	ItemDirectory       ItemType = "directory"
	ItemOpaqueDirectory ItemType = "likely_opaque_directory"
)

// MaxSamples bounds how many children of a directory are sampled.
const MaxSamples = 20

// ChildSample describes one non-hidden entry inside a sampled directory.
type ChildSample struct {
	Name      string
	IsFile    bool
	Extension string // Without the leading dot, empty for directories
}

// Item is a classification-ready record for one scanned path.
type Item struct {
	Path        string
	Name        string // Base name as found on disk
	Stem        string // Name without extension; equals Name for directories
	Extension   string // Without the leading dot
	Size        int64
	IsDir       bool
	TypeLabel   string
	Preview     string
	Parsable    bool
	Samples     []ChildSample
	IsOpaqueDir bool
}

// Type reports the item's presentation type.
func (i Item) Type() ItemType {
	switch {
	case !i.IsDir:
		return ItemFile
	case i.IsOpaqueDir:
		return ItemOpaqueDirectory
	default:
		return ItemDirectory
	}
}
