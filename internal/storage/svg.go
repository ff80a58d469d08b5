package storage

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/san-kum/ivpsim/internal/dynamo"
	"github.com/san-kum/ivpsim/internal/sim"
)

// TimeAxis selects the output time as the horizontal SVG coordinate.
const TimeAxis = -1

type SVGOptions struct {
	X, Y          int
	Width, Height int
	Stroke        string
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{X: TimeAxis, Y: 0, Width: 800, Height: 400, Stroke: "#00ff88"}
}

// ExportSVG draws one trajectory of result as an SVG path: component Y
// against component X, or against time when X is TimeAxis.
func ExportSVG(w io.Writer, result *sim.Result, opts SVGOptions) error {
	if result == nil || len(result.States) < 2 {
		return fmt.Errorf("storage: svg needs at least two outputs")
	}
	n := len(result.States[0])
	if opts.Y < 0 || opts.Y >= n || opts.X < TimeAxis || opts.X >= n {
		return fmt.Errorf("%w: components (%d, %d) of a state of length %d", dynamo.ErrDimensionMismatch, opts.X, opts.Y, n)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("storage: svg size %dx%d", opts.Width, opts.Height)
	}

	xs := make([]float64, len(result.States))
	ys := make([]float64, len(result.States))
	for i, u := range result.States {
		if opts.X == TimeAxis {
			xs[i] = result.Times[i]
		} else {
			xs[i] = u[opts.X]
		}
		ys[i] = u[opts.Y]
	}
	minX, rangeX := paddedRange(xs)
	minY, rangeY := paddedRange(ys)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="`,
		opts.Width, opts.Height, opts.Width, opts.Height, opts.Stroke)

	move := "M"
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) || math.IsInf(xs[i], 0) || math.IsInf(ys[i], 0) {
			move = "M"
			continue
		}
		x := (xs[i] - minX) / rangeX * float64(opts.Width)
		y := float64(opts.Height) - (ys[i]-minY)/rangeY*float64(opts.Height)
		fmt.Fprintf(&sb, "%s%.1f,%.1f ", move, x, y)
		move = "L"
	}
	sb.WriteString("\"/>\n</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func ExportSVGFile(path string, result *sim.Result, opts SVGOptions) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportSVG(file, result, opts)
}

// paddedRange returns the lower bound and width of values widened by 10%
// on each side. Non-finite values are ignored.
func paddedRange(values []float64) (lo, width float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if lo > hi {
		return 0, 1
	}
	width = hi - lo
	if width == 0 {
		width = 1
	}
	return lo - 0.1*width, 1.2 * width
}
