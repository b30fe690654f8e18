// Package pkgmeta reads the fields of package.json that shape a library build.
package pkgmeta

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	// FileName is the metadata file read from the project directory.
	FileName = "package.json"

	TypeModule   = "module"
	TypeCommonJS = "commonjs"
)

// Package holds the package.json fields used by the builder.
type Package struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Load reads dir/package.json. A missing name is not an error.
func Load(dir string) (Package, error) {
	var pkg Package

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return pkg, fmt.Errorf("failed to read package metadata: %w", err)
	}

	if err := json.Unmarshal(data, &pkg); err != nil {
		return pkg, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	return pkg, nil
}

// IsModule reports whether .js files in the package are ES modules.
func (p Package) IsModule() bool {
	return p.Type == TypeModule
}

// GlobalName converts the package name into a JavaScript identifier suitable
// for the global variable of an iife bundle, e.g. "@acme/ui-kit" becomes
// "acmeUiKit".
func (p Package) GlobalName() string {
	var b strings.Builder
	upper := false
	for _, r := range p.Name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
			upper = b.Len() > 0
			continue
		}
		if b.Len() == 0 && unicode.IsDigit(r) {
			b.WriteRune('_')
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
