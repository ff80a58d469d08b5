package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/ivpsim/internal/dynamo"
	"github.com/san-kum/ivpsim/internal/sim"
)

// Point is one sample projected onto two components.
type Point struct{ X, Y float64 }

// PhasePortrait holds a trajectory projected onto components XIndex and YIndex.
type PhasePortrait struct {
	XIndex, YIndex int
	Points         []Point
}

// NewPhasePortrait projects the recorded states of result onto two components.
func NewPhasePortrait(result *sim.Result, xIdx, yIdx int) (*PhasePortrait, error) {
	if err := checkIndices(result, xIdx, yIdx); err != nil {
		return nil, err
	}

	portrait := &PhasePortrait{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]Point, 0, len(result.States)),
	}
	for _, u := range result.States {
		portrait.Points = append(portrait.Points, Point{X: u[xIdx], Y: u[yIdx]})
	}
	return portrait, nil
}

func checkIndices(result *sim.Result, idx ...int) error {
	if result == nil || len(result.States) == 0 {
		return errors.New("analysis: empty result")
	}
	n := len(result.States[0])
	for _, i := range idx {
		if i < 0 || i >= n {
			return fmt.Errorf("%w: component %d of %d", dynamo.ErrDimensionMismatch, i, n)
		}
	}
	return nil
}

// bounds is the padded bounding box of a set of points.
type bounds struct {
	minX, maxX float64
	minY, maxY float64
}

func newBounds(points []Point, pad float64) bounds {
	b := bounds{points[0].X, points[0].X, points[0].Y, points[0].Y}
	for _, p := range points[1:] {
		b.minX, b.maxX = math.Min(b.minX, p.X), math.Max(b.maxX, p.X)
		b.minY, b.maxY = math.Min(b.minY, p.Y), math.Max(b.maxY, p.Y)
	}
	dx, dy := b.maxX-b.minX, b.maxY-b.minY
	if dx == 0 {
		dx = 1
	}
	if dy == 0 {
		dy = 1
	}
	b.minX, b.maxX = b.minX-dx*pad, b.maxX+dx*pad
	b.minY, b.maxY = b.minY-dy*pad, b.maxY+dy*pad
	return b
}

// cell maps (x, y) onto a width×height grid with row 0 at the top.
func (b bounds) cell(x, y float64, width, height int) (row, col int) {
	col = int((x - b.minX) / (b.maxX - b.minX) * float64(width-1))
	row = height - 1 - int((y-b.minY)/(b.maxY-b.minY)*float64(height-1))
	return row, col
}

// PhasePortraitToASCII plots the portrait on a width×height character grid,
// drawing the axes where they cross the visible area.
func PhasePortraitToASCII(portrait *PhasePortrait, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}
	b := newBounds(portrait.Points, 0.1)

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range portrait.Points {
		row, col := b.cell(p.X, p.Y, width, height)
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	axisRow, axisCol := b.cell(0, 0, width, height)
	if b.minX <= 0 && b.maxX >= 0 {
		for row := 0; row < height; row++ {
			if canvas[row][axisCol] == ' ' {
				canvas[row][axisCol] = '│'
			}
		}
	}
	if b.minY <= 0 && b.maxY >= 0 {
		for col := 0; col < width; col++ {
			if canvas[axisRow][col] == ' ' {
				canvas[axisRow][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// PoincareSection records points where a trajectory crosses a threshold.
type PoincareSection struct {
	Points []Point
}

// NewPoincareSection records (recordX, recordY) at every upward crossing of
// component crossIdx through threshold, interpolating linearly between the
// two outputs that bracket the crossing.
func NewPoincareSection(result *sim.Result, crossIdx int, threshold float64, recordX, recordY int) (*PoincareSection, error) {
	if err := checkIndices(result, crossIdx, recordX, recordY); err != nil {
		return nil, err
	}

	section := &PoincareSection{}
	for i := 1; i < len(result.States); i++ {
		prev, curr := result.States[i-1], result.States[i]
		if !(prev[crossIdx] < threshold && curr[crossIdx] >= threshold) {
			continue
		}

		frac := (threshold - prev[crossIdx]) / (curr[crossIdx] - prev[crossIdx])
		if math.IsNaN(frac) || math.IsInf(frac, 0) {
			frac = 0.5
		}
		section.Points = append(section.Points, Point{
			X: prev[recordX] + frac*(curr[recordX]-prev[recordX]),
			Y: prev[recordY] + frac*(curr[recordY]-prev[recordY]),
		})
	}
	return section, nil
}

// PoincareSectionToASCII converts section data to ASCII plot
func PoincareSectionToASCII(section *PoincareSection, width, height int) string {
	if section == nil || len(section.Points) == 0 {
		return "No crossings detected"
	}
	return PhasePortraitToASCII(&PhasePortrait{Points: section.Points}, width, height)
}
