package grid

import (
	"math/rand/v2"
	"testing"
)

type card struct {
	name string
	size int
}

func (c card) GridSize() int { return c.size }

func withSize(c card, n int) card {
	c.size = n
	return c
}

func TestPack_Example(t *testing.T) {
	got := Pack([]card{{"a", 2}, {"b", 2}, {"c", 1}}, 3)

	want := []struct{ row, col int }{{0, 0}, {2, 0}, {0, 2}}
	// Item b needs a 2x2 square; rows 0-1 at columns 0-1 belong to a, so
	// the first free square starts at row 2.
	for i, w := range want {
		if got[i].Row != w.row || got[i].Col != w.col {
			t.Errorf("item[%d] %s: expected (%d,%d), got (%d,%d)",
				i, got[i].Item.name, w.row, w.col, got[i].Row, got[i].Col)
		}
	}
}

func TestPack_PreservesOrder(t *testing.T) {
	items := []card{{"a", 1}, {"b", 3}, {"c", 1}, {"d", 2}}
	got := Pack(items, 3)
	for i := range items {
		if got[i].Item.name != items[i].name {
			t.Errorf("position %d: expected %q, got %q", i, items[i].name, got[i].Item.name)
		}
	}
}

func TestPack_SingleCells(t *testing.T) {
	got := Pack([]card{{"a", 0}, {"b", 0}, {"c", 0}, {"d", 0}}, 3)
	want := []struct{ row, col int }{{0, 0}, {0, 1}, {0, 2}, {1, 0}}
	for i, w := range want {
		if got[i].Row != w.row || got[i].Col != w.col {
			t.Errorf("item[%d]: expected (%d,%d), got (%d,%d)", i, w.row, w.col, got[i].Row, got[i].Col)
		}
		if got[i].Size != 1 {
			t.Errorf("item[%d]: expected size 1, got %d", i, got[i].Size)
		}
	}
}

func TestPack_BackfillsGaps(t *testing.T) {
	// a takes columns 0-1 of rows 0-1, b fills column 2 of row 0,
	// c fills column 2 of row 1.
	got := Pack([]card{{"a", 2}, {"b", 1}, {"c", 1}, {"d", 1}}, 3)
	want := []struct{ row, col int }{{0, 0}, {0, 2}, {1, 2}, {2, 0}}
	for i, w := range want {
		if got[i].Row != w.row || got[i].Col != w.col {
			t.Errorf("item[%d]: expected (%d,%d), got (%d,%d)", i, w.row, w.col, got[i].Row, got[i].Col)
		}
	}
}

func TestPack_NoOverlapAndBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for columns := 1; columns <= 6; columns++ {
		items := make([]card, 40)
		for i := range items {
			items[i] = card{size: 1 + rng.IntN(3)}
		}

		placed := Pack(items, columns)
		seen := map[[2]int]int{}
		for i, p := range placed {
			if p.Col+p.Size > columns {
				t.Fatalf("columns=%d item %d: col %d + size %d exceeds grid", columns, i, p.Col, p.Size)
			}
			for r := p.Row; r < p.Row+p.Size; r++ {
				for c := p.Col; c < p.Col+p.Size; c++ {
					if other, ok := seen[[2]int{r, c}]; ok {
						t.Fatalf("columns=%d: cell (%d,%d) claimed by items %d and %d", columns, r, c, other, i)
					}
					seen[[2]int{r, c}] = i
				}
			}
		}
	}
}

func TestPack_OversizedItemsAreClamped(t *testing.T) {
	got := Pack([]card{{"wide", 5}, {"neg", -2}}, 2)
	if got[0].Size != 2 || got[0].Row != 0 || got[0].Col != 0 {
		t.Errorf("expected wide clamped to size 2 at (0,0), got size %d at (%d,%d)", got[0].Size, got[0].Row, got[0].Col)
	}
	if got[1].Size != 1 || got[1].Row != 2 {
		t.Errorf("expected neg as size 1 on row 2, got size %d on row %d", got[1].Size, got[1].Row)
	}
}

func TestPack_DefaultColumns(t *testing.T) {
	got := Pack([]card{{"a", 1}, {"b", 1}, {"c", 1}, {"d", 1}}, 0)
	if got[3].Row != 1 || got[3].Col != 0 {
		t.Errorf("expected fourth item to wrap at 3 columns, got (%d,%d)", got[3].Row, got[3].Col)
	}
}

func TestPack_Empty(t *testing.T) {
	if got := Pack([]card{}, 3); len(got) != 0 {
		t.Errorf("expected no placements, got %d", len(got))
	}
}

func TestAssignSizes(t *testing.T) {
	t.Run("any declared size wins", func(t *testing.T) {
		got := AssignSizes([]card{{"a", 0}, {"b", 2}}, withSize)
		if got[0].size != 0 || got[1].size != 2 {
			t.Errorf("expected sizes [0 2], got [%d %d]", got[0].size, got[1].size)
		}
	})

	t.Run("all unset default to one", func(t *testing.T) {
		got := AssignSizes([]card{{"a", 0}, {"b", 0}}, withSize)
		if got[0].size != 1 || got[1].size != 1 {
			t.Errorf("expected sizes [1 1], got [%d %d]", got[0].size, got[1].size)
		}
	})

	t.Run("empty", func(t *testing.T) {
		got := AssignSizes[card](nil, withSize)
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", got)
		}
	})

	t.Run("input untouched", func(t *testing.T) {
		in := []card{{"a", 0}}
		AssignSizes(in, withSize)
		if in[0].size != 0 {
			t.Errorf("expected input unchanged, got size %d", in[0].size)
		}
	})
}
