package wrapper

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Glyph is a positioned piece of text as reported by the content stream.
// Coordinates use the PDF convention with y growing upward.
type Glyph struct {
	Text     string
	X        float64
	Y        float64
	W        float64
	FontName string
	FontSize float64
}

// LayoutOptions tunes how glyphs are assembled into lines, spans and blocks.
// Every factor is relative to the font size of the glyph being placed.
type LayoutOptions struct {
	// LineTolerance is the baseline distance still considered the same line
	LineTolerance float64
	// SpaceGap is the horizontal gap that becomes a single space inside a span
	SpaceGap float64
	// SpanGap is the horizontal gap that splits a line into separate spans
	SpanGap float64
	// BlockGap is the baseline distance that starts a new block
	BlockGap float64
}

// DefaultLayoutOptions returns options that work for typical single column listings
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		LineTolerance: 0.5,
		SpaceGap:      0.15,
		SpanGap:       2.0,
		BlockGap:      2.0,
	}
}

const defaultFontSize = 12.0

type glyphLine struct {
	baseline float64
	size     float64
	glyphs   []Glyph
}

// BuildBlocks assembles glyphs into blocks of lines of spans.
//
// Glyphs are assigned to the first line whose baseline is within tolerance,
// lines are ordered top to bottom and glyphs within a line left to right.
// A span ends when the font changes or the gap to the next glyph exceeds
// SpanGap; a block ends when the baseline distance exceeds BlockGap.
// pageHeight flips y to a top-left origin when it is positive.
func BuildBlocks(glyphs []Glyph, pageHeight float64, opts LayoutOptions) []Block {
	lines := groupLines(glyphs, opts)
	if len(lines) == 0 {
		return nil
	}

	var blocks []Block
	var current Block
	prevBaseline := math.NaN()
	prevSize := 0.0

	for _, gl := range lines {
		spans := buildSpans(gl.glyphs, pageHeight, opts)
		if len(spans) == 0 {
			continue
		}
		if !math.IsNaN(prevBaseline) && prevBaseline-gl.baseline > opts.BlockGap*math.Max(prevSize, gl.size) {
			blocks = append(blocks, current)
			current = Block{}
		}
		current.Lines = append(current.Lines, Line{Spans: spans})
		prevBaseline = gl.baseline
		prevSize = gl.size
	}
	if len(current.Lines) > 0 {
		blocks = append(blocks, current)
	}

	return blocks
}

func groupLines(glyphs []Glyph, opts LayoutOptions) []glyphLine {
	var lines []glyphLine
	for _, g := range glyphs {
		if g.Text == "" {
			continue
		}
		size := fontSize(g)
		placed := false
		for i := range lines {
			tol := opts.LineTolerance * math.Max(size, lines[i].size)
			if math.Abs(lines[i].baseline-g.Y) <= tol {
				lines[i].glyphs = append(lines[i].glyphs, g)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, glyphLine{baseline: g.Y, size: size, glyphs: []Glyph{g}})
		}
	}

	// top of the page first
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].baseline > lines[j].baseline
	})
	for i := range lines {
		sort.SliceStable(lines[i].glyphs, func(a, b int) bool {
			return lines[i].glyphs[a].X < lines[i].glyphs[b].X
		})
	}
	return lines
}

func buildSpans(glyphs []Glyph, pageHeight float64, opts LayoutOptions) []Span {
	var spans []Span
	var sb strings.Builder
	var cur *Span
	var prev Glyph

	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = strings.TrimRightFunc(sb.String(), unicode.IsSpace)
		if cur.Text != "" {
			spans = append(spans, *cur)
		}
		cur = nil
		sb.Reset()
	}

	for _, g := range glyphs {
		blank := strings.TrimSpace(g.Text) == ""
		if cur != nil {
			gap := g.X - (prev.X + prev.W)
			size := fontSize(prev)
			switch {
			case gap > opts.SpanGap*size || g.FontName != cur.FontName || fontSize(g) != cur.FontSize:
				if !blank {
					flush()
				}
			case gap > opts.SpaceGap*size && !blank && !endsWithSpace(sb.String()):
				sb.WriteByte(' ')
			}
		}
		if cur == nil {
			if blank {
				continue
			}
			cur = &Span{
				Origin:   Point{X: g.X, Y: flipY(g.Y, pageHeight)},
				FontName: g.FontName,
				FontSize: fontSize(g),
			}
		}
		sb.WriteString(g.Text)
		cur.Width = g.X + g.W - cur.Origin.X
		prev = g
	}
	flush()

	return spans
}

func fontSize(g Glyph) float64 {
	if g.FontSize <= 0 {
		return defaultFontSize
	}
	return g.FontSize
}

func flipY(y, pageHeight float64) float64 {
	if pageHeight > 0 {
		return pageHeight - y
	}
	return y
}

func endsWithSpace(s string) bool {
	return s != "" && unicode.IsSpace(rune(s[len(s)-1]))
}
