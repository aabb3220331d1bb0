package battleship

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnmarshalJSON accepts a board as either a 2D array of rows or a flat
// row-major array of BoardSize*BoardSize cell codes. null cells decode as
// Empty. Boards always encode as 2D arrays.
func (b *Board) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var rows [][]*string
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) == BoardSize {
		var out Board
		for r, row := range rows {
			if len(row) != BoardSize {
				return fmt.Errorf("board row %d has %d cells, want %d", r, len(row), BoardSize)
			}
			for c, code := range row {
				cell, err := parseCell(code)
				if err != nil {
					return fmt.Errorf("board cell (%d,%d): %w", r, c, err)
				}
				out[r][c] = cell
			}
		}
		*b = out
		return nil
	}

	var flat []*string
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("board must be a 2D or flat array of cell codes: %w", err)
	}
	if len(flat) != BoardSize*BoardSize {
		return fmt.Errorf("flat board has %d cells, want %d", len(flat), BoardSize*BoardSize)
	}
	var out Board
	for i, code := range flat {
		cell, err := parseCell(code)
		if err != nil {
			return fmt.Errorf("board cell %d: %w", i, err)
		}
		out[i/BoardSize][i%BoardSize] = cell
	}
	*b = out
	return nil
}

func parseCell(code *string) (Cell, error) {
	if code == nil {
		return Empty, nil
	}
	cell := Cell(*code)
	if !cell.valid() {
		return Empty, fmt.Errorf("unknown cell code %q", *code)
	}
	return cell, nil
}

// ParseBoard decodes a board in either accepted layout.
func ParseBoard(data []byte) (Board, error) {
	var b Board
	if err := json.Unmarshal(data, &b); err != nil {
		return Board{}, err
	}
	return b, nil
}
