// Package normalize maps source-specific program names and cabin labels onto
// their canonical forms. The synonym table lives in programs.yaml so new
// aliases are a data change, not a code change.
package normalize

import (
	_ "embed"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/pointfindr/points-cli/internal/model"
)

//go:embed programs.yaml
var programsYAML []byte

type synonymFile struct {
	Programs map[string][]string `yaml:"programs"`
}

// synonyms maps lowercased alias -> canonical program name.
var synonyms = mustLoadSynonyms()

func mustLoadSynonyms() map[string]string {
	var f synonymFile
	if err := yaml.Unmarshal(programsYAML, &f); err != nil {
		panic(fmt.Sprintf("normalize: parse programs.yaml: %v", err))
	}
	m := make(map[string]string)
	for canonical, aliases := range f.Programs {
		for _, a := range aliases {
			m[strings.ToLower(a)] = canonical
		}
	}
	return m
}

// Program returns the canonical program name for a raw source label. Lookup is
// case- and whitespace-insensitive; unmapped names fall back to a title-cased
// copy rather than being rejected. An empty or blank input reports ok=false:
// a deal with no identifiable program cannot be deduplicated.
func Program(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if canonical, ok := synonyms[strings.ToLower(trimmed)]; ok {
		return canonical, true
	}
	return cases.Title(language.English).String(strings.ToLower(trimmed)), true
}

// CabinFromLabel classifies a free-text cabin label. The precedence order
// premium, business, first must not be reordered: a "Premium Business" label
// is premium because that check runs first. Anything unmatched is economy.
func CabinFromLabel(label string) model.Cabin {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "premium"):
		return model.CabinPremium
	case strings.Contains(l, "business"):
		return model.CabinBusiness
	case strings.Contains(l, "first"):
		return model.CabinFirst
	default:
		return model.CabinEconomy
	}
}
