// Package grid lays out variable-size cards on a fixed-column grid.
//
// Cards are square: a card of size s covers s columns and s rows. Placement
// is greedy first-fit in input order, scanning rows top to bottom and
// columns left to right.
package grid

// DefaultColumns is used when Pack is given a non-positive column count.
const DefaultColumns = 3

// Item is anything that can be placed on the grid. GridSize returns 0 when
// the item does not declare a size.
type Item interface {
	GridSize() int
}

// Placement records where an item landed.
type Placement[T Item] struct {
	Item T   `json:"item"`
	Size int `json:"size"`
	Row  int `json:"row"`
	Col  int `json:"col"`
}

// Pack assigns every item a row and column. Output order matches input
// order. Sizes below 1 count as 1 and sizes wider than the grid are clamped
// to the column count, so packing always terminates.
func Pack[T Item](items []T, columns int) []Placement[T] {
	if columns < 1 {
		columns = DefaultColumns
	}

	occ := make(occupancy)
	placed := make([]Placement[T], 0, len(items))

	for _, item := range items {
		size := normalizeSize(item.GridSize(), columns)
		row, col := occ.firstFit(size, columns)
		occ.mark(row, col, size, columns)
		placed = append(placed, Placement[T]{Item: item, Size: size, Row: row, Col: col})
	}

	return placed
}

// AssignSizes gives every item size 1 unless at least one item already
// declares a size, in which case the items are returned as supplied.
func AssignSizes[T Item](items []T, withSize func(T, int) T) []T {
	if len(items) == 0 {
		return []T{}
	}

	for _, item := range items {
		if item.GridSize() != 0 {
			return items
		}
	}

	out := make([]T, len(items))
	for i, item := range items {
		out[i] = withSize(item, 1)
	}
	return out
}

func normalizeSize(size, columns int) int {
	if size < 1 {
		return 1
	}
	if size > columns {
		return columns
	}
	return size
}

// occupancy is a sparse row -> occupied-columns table. Rows are allocated
// only when something is placed on them.
type occupancy map[int][]bool

func (o occupancy) free(row, col int) bool {
	cells, ok := o[row]
	return !ok || !cells[col]
}

func (o occupancy) fits(row, col, size, columns int) bool {
	if col+size > columns {
		return false
	}
	for r := row; r < row+size; r++ {
		for c := col; c < col+size; c++ {
			if !o.free(r, c) {
				return false
			}
		}
	}
	return true
}

func (o occupancy) firstFit(size, columns int) (int, int) {
	for row := 0; ; row++ {
		for col := 0; col < columns; col++ {
			if o.fits(row, col, size, columns) {
				return row, col
			}
		}
	}
}

func (o occupancy) mark(row, col, size, columns int) {
	for r := row; r < row+size; r++ {
		cells, ok := o[r]
		if !ok {
			cells = make([]bool, columns)
			o[r] = cells
		}
		for c := col; c < col+size; c++ {
			cells[c] = true
		}
	}
}
