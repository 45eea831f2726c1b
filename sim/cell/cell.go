package cell

import (
	"fmt"
	"strings"
)

// Cell is a single axis-aligned box of a cell decomposition. A Cell is
// immutable after construction; grids hand out the same *Cell for the same
// grid position, so cells can be compared by pointer identity.
type Cell struct {
	index      int
	identifier []int
	minCorner  []float64
	maxCorner  []float64
}

func newCell(index int, identifier []int, minCorner, maxCorner []float64) *Cell {
	for d := range minCorner {
		if !(minCorner[d] < maxCorner[d]) {
			panic(fmt.Sprintf("cell %v: min corner %v is not strictly below max corner %v on axis %d",
				identifier, minCorner[d], maxCorner[d], d))
		}
	}
	return &Cell{index: index, identifier: identifier, minCorner: minCorner, maxCorner: maxCorner}
}

// Index returns the dense index of this cell in its grid's cell list.
func (c *Cell) Index() int {
	return c.index
}

// Identifier returns the per-axis integer indices of this cell.
// The returned slice is the cell's internal storage and MUST NOT be modified.
func (c *Cell) Identifier() []int {
	return c.identifier
}

// MinCorner returns the minimum corner of this cell. The corner is adjusted
// to the smallest representable position that still maps back onto this cell.
// The returned slice MUST NOT be modified.
func (c *Cell) MinCorner() []float64 {
	return c.minCorner
}

// MaxCorner returns the maximum corner of this cell. The corner is adjusted
// to the largest representable position that still maps back onto this cell.
// The returned slice MUST NOT be modified.
func (c *Cell) MaxCorner() []float64 {
	return c.maxCorner
}

func (c *Cell) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	for d, entry := range c.identifier {
		if d > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, "%d", entry)
	}
	sb.WriteString(")")
	return sb.String()
}
