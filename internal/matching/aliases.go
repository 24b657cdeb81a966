package matching

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadAliasTable reads an alias table from a JSON file mapping detector
// spellings to canonical activity names. Keys are normalized on load so
// lookups are insensitive to case and spacing in the file.
func LoadAliasTable(path string) (AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias table %s: %w", path, err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse alias table %s: %w", path, err)
	}

	table := make(AliasTable, len(raw))
	for alias, canonical := range raw {
		table[NormalizeName(alias)] = NormalizeName(canonical)
	}
	return table, nil
}
