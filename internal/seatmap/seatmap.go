// Package seatmap describes the fixed seating chart of an auditorium.
// The chart is static configuration, never persisted; it defines which
// seat labels exist.
package seatmap

import (
	"fmt"
	"strconv"
)

// Map is an ordered grid of rows.  A cell is a seat label or "" for an
// aisle.  Columns line up across rows so clients can render the grid
// as-is.
type Map struct {
	rows  [][]string
	index map[string]struct{}
}

// New validates rows and returns a Map.  Labels must be unique.
func New(rows [][]string) (*Map, error) {
	m := &Map{rows: make([][]string, len(rows)), index: make(map[string]struct{})}
	for i, row := range rows {
		m.rows[i] = append([]string(nil), row...)
		for _, label := range row {
			if label == "" {
				continue
			}
			if _, dup := m.index[label]; dup {
				return nil, fmt.Errorf("seatmap: duplicate seat %q in row %d", label, i+1)
			}
			m.index[label] = struct{}{}
		}
	}
	return m, nil
}

// Default returns the house layout: rows A to M with eighteen seats
// each, nine either side of a centre aisle.  Row K is a cross aisle with
// no seats.
func Default() *Map {
	const (
		cols  = 19
		aisle = 9
	)
	var rows [][]string
	for r := 'A'; r <= 'M'; r++ {
		row := make([]string, cols)
		if r != 'K' {
			n := 1
			for c := 0; c < cols; c++ {
				if c == aisle {
					continue
				}
				row[c] = string(r) + strconv.Itoa(n)
				n++
			}
		}
		rows = append(rows, row)
	}
	m, err := New(rows)
	if err != nil {
		panic(err)
	}
	return m
}

// Rows returns a copy of the grid.
func (m *Map) Rows() [][]string {
	out := make([][]string, len(m.rows))
	for i, row := range m.rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Contains reports whether label is a seat on the map.
func (m *Map) Contains(label string) bool {
	_, ok := m.index[label]
	return ok
}

// Len returns the number of seats.
func (m *Map) Len() int { return len(m.index) }
