package pricing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Built-in table names.
const (
	TableStandard = "standard"
	TableExtended = "extended"
)

// Standard is the six-tier table used for catalog generation.
func Standard() *Table {
	return &Table{
		Name: TableStandard,
		Tiers: []Tier{
			{Low: 0, High: 20000, Multiplier: 1.32},
			{Low: 20000, High: 35000, Multiplier: 1.31},
			{Low: 35000, High: 60000, Multiplier: 1.30},
			{Low: 60000, High: 85000, Multiplier: 1.29},
			{Low: 85000, High: 105000, Multiplier: 1.28},
			{Low: 105000, High: 0, Multiplier: 1.275},
		},
	}
}

// Extended is the finer-grained table used for bulk repricing.
func Extended() *Table {
	return &Table{
		Name: TableExtended,
		Tiers: []Tier{
			{Low: 0, High: 10000, Multiplier: 1.41},
			{Low: 10000, High: 11000, Multiplier: 1.40},
			{Low: 11000, High: 13000, Multiplier: 1.39},
			{Low: 13000, High: 15000, Multiplier: 1.38},
			{Low: 15000, High: 18000, Multiplier: 1.37},
			{Low: 18000, High: 20000, Multiplier: 1.36},
			{Low: 20000, High: 30000, Multiplier: 1.35},
			{Low: 30000, High: 40000, Multiplier: 1.34},
			{Low: 40000, High: 50000, Multiplier: 1.33},
			{Low: 50000, High: 60000, Multiplier: 1.32},
			{Low: 60000, High: 70000, Multiplier: 1.30},
			{Low: 70000, High: 80000, Multiplier: 1.29},
			{Low: 80000, High: 90000, Multiplier: 1.28},
			{Low: 90000, High: 110000, Multiplier: 1.27},
			{Low: 110000, High: 0, Multiplier: 1.26},
		},
	}
}

// Registry resolves tier tables by name. It starts with the built-in
// generations and can absorb replacements from a YAML file.
type Registry struct {
	tables map[string]*Table
}

// NewRegistry returns a registry seeded with the built-in tables.
func NewRegistry() *Registry {
	r := &Registry{tables: map[string]*Table{}}
	r.put(Standard())
	r.put(Extended())
	return r
}

// LoadFile merges tables from a YAML document into the registry. Tables with
// known names replace the built-ins.
func (r *Registry) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tier tables %s: %w", path, err)
	}

	var file struct {
		Tables []Table `yaml:"tables"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse tier tables %s: %w", path, err)
	}

	for i := range file.Tables {
		t := file.Tables[i]
		sortTiers(t.Tiers)
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tier tables %s: %w", path, err)
		}
		r.put(&t)
	}
	return nil
}

// Resolve returns the table registered under name.
func (r *Registry) Resolve(name string) (*Table, error) {
	if t, ok := r.tables[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("tier table %s is not registered", name)
}

func (r *Registry) put(t *Table) {
	r.tables[t.Name] = t
}
