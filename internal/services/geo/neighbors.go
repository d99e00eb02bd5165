package geo

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed neighbors.yaml
var neighborsYAML []byte

// Neighbors maps a city to the nearby cities searched when the city itself has no candidates.
type Neighbors map[string][]string

var (
	defaultNeighborsOnce sync.Once
	defaultNeighbors     Neighbors
	defaultNeighborsErr  error
)

// DefaultNeighbors returns the embedded adjacency table.
func DefaultNeighbors() (Neighbors, error) {
	defaultNeighborsOnce.Do(func() {
		defaultNeighbors, defaultNeighborsErr = ParseNeighbors(neighborsYAML)
	})
	return defaultNeighbors, defaultNeighborsErr
}

func ParseNeighbors(raw []byte) (Neighbors, error) {
	var table Neighbors
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parse neighbors table: %w", err)
	}

	cleaned := make(Neighbors, len(table))
	for city, list := range table {
		city = strings.TrimSpace(city)
		if city == "" {
			continue
		}
		out := make([]string, 0, len(list))
		for _, n := range list {
			if n = strings.TrimSpace(n); n != "" && n != city {
				out = append(out, n)
			}
		}
		cleaned[city] = out
	}
	return cleaned, nil
}

// Of returns the neighbors of city, or nil when the table has none.
func (n Neighbors) Of(city string) []string {
	list := n[strings.TrimSpace(city)]
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}
