package enricher

// opaqueNames are directories whose contents are generated or tool-owned
// and always move as a unit.
var opaqueNames = map[string]bool{
	"node_modules": true,
	"__pycache__":  true,
	".git":         true,
	".svn":         true,
	"target":       true,
	"dist":         true,
	"build":        true,
	"out":          true,
	".idea":        true,
	".vscode":      true,
	"vendor":       true,
	"deps":         true,
	".cache":       true,
	"tmp":          true,
	"temp":         true,
}

const (
	minHomogeneousSamples = 5
	homogeneousRatio      = 0.8
)

// IsOpaqueName reports whether name is on the opaque deny-list.
func IsOpaqueName(name string) bool {
	return opaqueNames[name]
}

// IsOpaqueDirectory applies the local opaque-directory heuristic: a
// deny-listed name, or at least five samples that are mostly numbered and
// mostly share the extension of the first extensioned sample.
func IsOpaqueDirectory(name string, samples []ChildSample) bool {
	if IsOpaqueName(name) {
		return true
	}
	if len(samples) < minHomogeneousSamples {
		return false
	}

	numbered := 0
	for _, s := range samples {
		if hasASCIIDigit(s.Name) {
			numbered++
		}
	}
	if float64(numbered)/float64(len(samples)) <= homogeneousRatio {
		return false
	}

	var first string
	withExt, same := 0, 0
	for _, s := range samples {
		if s.Extension == "" {
			continue
		}
		if withExt == 0 {
			first = s.Extension
		}
		withExt++
		if s.Extension == first {
			same++
		}
	}
	if withExt == 0 {
		return false
	}
	return float64(same)/float64(withExt) > homogeneousRatio
}

func hasASCIIDigit(value string) bool {
	for i := 0; i < len(value); i++ {
		if value[i] >= '0' && value[i] <= '9' {
			return true
		}
	}
	return false
}
