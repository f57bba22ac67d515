package classification

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// keywordFile is the on-disk shape of a provider keyword extension.
//
//	providers:
//	  - name: Heron
//	    keywords:
//	      - text: "ΗΡΩΝ"
//	      - text: heron
//	        fold_case: true
type keywordFile struct {
	Providers []ProviderKeywords `yaml:"providers"`
}

// ParseKeywordFile decodes provider keyword sets from YAML.
func ParseKeywordFile(r io.Reader) ([]ProviderKeywords, error) {
	var f keywordFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode keyword file: %w", err)
	}

	for i, p := range f.Providers {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("provider at index %d has no name", i)
		}
		if len(p.Keywords) == 0 {
			return nil, fmt.Errorf("provider %q has no keywords", p.Name)
		}
		for j, k := range p.Keywords {
			if strings.TrimSpace(k.Text) == "" {
				return nil, fmt.Errorf("provider %q keyword at index %d is empty", p.Name, j)
			}
		}
	}

	return f.Providers, nil
}

// LoadKeywordFile reads provider keyword sets from a YAML file.
func LoadKeywordFile(path string) ([]ProviderKeywords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyword file: %w", err)
	}
	defer f.Close()

	return ParseKeywordFile(f)
}
