package codegen

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ImportSet is an insertion-ordered set of import paths. First-seen order
// is what ends up in the generated import block.
type ImportSet struct {
	paths *orderedmap.OrderedMap[string, bool] // path → blank import
}

func NewImportSet() *ImportSet {
	return &ImportSet{paths: orderedmap.New[string, bool]()}
}

// Add records an import path. Adding a path twice keeps the first
// position; a later blank add does not downgrade a named import.
func (s *ImportSet) Add(path string) {
	if path == "" {
		return
	}
	if _, ok := s.paths.Get(path); ok {
		return
	}
	s.paths.Set(path, false)
}

// AddBlank records a side-effect import (database drivers).
func (s *ImportSet) AddBlank(path string) {
	if path == "" {
		return
	}
	if _, ok := s.paths.Get(path); ok {
		return
	}
	s.paths.Set(path, true)
}

// Lines renders the body of an import declaration, one line per path.
func (s *ImportSet) Lines() []string {
	lines := make([]string, 0, s.paths.Len())
	for pair := s.paths.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value {
			lines = append(lines, "_ \""+pair.Key+"\"")
		} else {
			lines = append(lines, "\""+pair.Key+"\"")
		}
	}
	return lines
}

func (s *ImportSet) Len() int { return s.paths.Len() }

// ExtractImports splits an implementation body into its leading import
// paths and the remaining statements. Scanning runs from the top over
// import lines, import blocks, blanks, and comments; the first real code
// line stops extraction permanently, so an import-looking line later in
// the body is ordinary code.
func ExtractImports(body string) (imports []string, rest string) {
	lines := strings.Split(body, "\n")
	i := 0
	inBlock := false

	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		if inBlock {
			if line == ")" {
				inBlock = false
				continue
			}
			if path := importPath(line); path != "" {
				imports = append(imports, path)
			}
			continue
		}

		switch {
		case line == "" || strings.HasPrefix(line, "//"):
			continue
		case line == "import (":
			inBlock = true
		case strings.HasPrefix(line, "import "):
			if path := importPath(strings.TrimPrefix(line, "import ")); path != "" {
				imports = append(imports, path)
			}
		default:
			rest = strings.Join(lines[i:], "\n")
			return imports, strings.TrimRight(rest, "\n")
		}
	}
	return imports, ""
}

// importPath pulls the quoted path out of one import spec line, tolerating
// an alias or blank identifier before the quote.
func importPath(line string) string {
	start := strings.Index(line, "\"")
	if start < 0 {
		return ""
	}
	end := strings.Index(line[start+1:], "\"")
	if end < 0 {
		return ""
	}
	return line[start+1 : start+1+end]
}
