package model

// Position identifies a cell on the board
type Position struct {
	Row int
	Col int
}

// Cell is a single square of a board
type Cell struct {
	IsMine     bool
	IsRevealed bool
	IsFlagged  bool
	// AdjacentMines is the count of mine neighbors among the up-to-8
	// neighbors. Meaningless when IsMine.
	AdjacentMines int
}

// Board is the shared grid for one game. Exactly MineCount cells carry
// a mine once mines have been placed.
type Board struct {
	Rows      int
	Cols      int
	MineCount int
	Cells     [][]Cell
}

// NewEmptyBoard allocates a board with no mines placed.
func NewEmptyBoard(rows, cols, mineCount int) *Board {
	cells := make([][]Cell, rows)
	for r := range cells {
		cells[r] = make([]Cell, cols)
	}
	return &Board{
		Rows:      rows,
		Cols:      cols,
		MineCount: mineCount,
		Cells:     cells,
	}
}

// InBounds reports whether the position lies on the board.
func (b *Board) InBounds(pos Position) bool {
	return pos.Row >= 0 && pos.Row < b.Rows && pos.Col >= 0 && pos.Col < b.Cols
}

// At returns the cell at pos, or nil if out of bounds.
func (b *Board) At(pos Position) *Cell {
	if !b.InBounds(pos) {
		return nil
	}
	return &b.Cells[pos.Row][pos.Col]
}

// Neighbors returns the in-bounds 8-connected neighbors of pos.
func (b *Board) Neighbors(pos Position) []Position {
	neighbors := make([]Position, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			n := Position{Row: pos.Row + dr, Col: pos.Col + dc}
			if b.InBounds(n) {
				neighbors = append(neighbors, n)
			}
		}
	}
	return neighbors
}

// SafeCellCount returns the number of non-mine cells.
func (b *Board) SafeCellCount() int {
	return b.Rows*b.Cols - b.MineCount
}

// RevealedSafeCount returns the number of revealed non-mine cells.
func (b *Board) RevealedSafeCount() int {
	n := 0
	for r := range b.Cells {
		for c := range b.Cells[r] {
			cell := &b.Cells[r][c]
			if cell.IsRevealed && !cell.IsMine {
				n++
			}
		}
	}
	return n
}

// AllSafeRevealed reports the win condition: every non-mine cell revealed.
func (b *Board) AllSafeRevealed() bool {
	for r := range b.Cells {
		for c := range b.Cells[r] {
			cell := &b.Cells[r][c]
			if !cell.IsMine && !cell.IsRevealed {
				return false
			}
		}
	}
	return true
}

// MinePositions returns the positions of all mines.
func (b *Board) MinePositions() []Position {
	var mines []Position
	for r := range b.Cells {
		for c := range b.Cells[r] {
			if b.Cells[r][c].IsMine {
				mines = append(mines, Position{Row: r, Col: c})
			}
		}
	}
	return mines
}
