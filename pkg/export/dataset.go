package export

import "fmt"

// Dataset is a titled table with optional summary lines printed above it.
type Dataset struct {
	Title   string
	Summary []string
	Headers []string
	Rows    [][]string
	// Highlight optionally returns an RGB fill for a row; ok=false leaves it blank.
	Highlight func(row []string) (r, g, b int, ok bool)
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(d.Headers))
		}
	}
	return nil
}
