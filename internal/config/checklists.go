package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

//go:embed checklists.yaml
var defaultChecklistsYAML []byte

// LoadChecklists reads checklist definitions from path, or the embedded
// defaults when path is empty. Order is preserved for tie-breaking.
func LoadChecklists(path string) ([]domain.ChecklistDefinition, error) {
	data := defaultChecklistsYAML
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read checklists %s: %w", path, err)
		}
		data = raw
	}
	defs, err := ParseChecklists(data)
	if err != nil && path != "" {
		return nil, fmt.Errorf("checklists %s: %w", path, err)
	}
	return defs, err
}

func ParseChecklists(data []byte) ([]domain.ChecklistDefinition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse checklists", fmt.Errorf("empty payload"))
	}

	var raw []struct {
		Process  string   `yaml:"process"`
		Required []string `yaml:"required"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse checklists", err)
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse checklists", fmt.Errorf("no processes defined"))
	}

	defs := make([]domain.ChecklistDefinition, 0, len(raw))
	seenProcess := make(map[string]struct{}, len(raw))
	for i, entry := range raw {
		name := strings.TrimSpace(entry.Process)
		if name == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse checklists", fmt.Errorf("entry %d: process name is empty", i))
		}
		if _, dup := seenProcess[name]; dup {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse checklists", fmt.Errorf("duplicate process %q", name))
		}
		seenProcess[name] = struct{}{}

		def := domain.ChecklistDefinition{Process: name}
		seen := make(map[domain.Category]struct{}, len(entry.Required))
		for _, r := range entry.Required {
			category, ok := domain.ParseCategory(r)
			if !ok || !category.Known() {
				return nil, domain.WrapError(domain.ErrInvalidInput, "parse checklists", fmt.Errorf("process %q: unknown category %q (known: %s)", name, r, knownCategoryList()))
			}
			if _, dup := seen[category]; dup {
				continue
			}
			seen[category] = struct{}{}
			def.Required = append(def.Required, category)
		}
		if len(def.Required) == 0 {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse checklists", fmt.Errorf("process %q requires no documents", name))
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func knownCategoryList() string {
	names := make([]string, 0, 5)
	for _, c := range domain.KnownCategories() {
		names = append(names, strconv.Quote(string(c)))
	}
	return strings.Join(names, ", ")
}
