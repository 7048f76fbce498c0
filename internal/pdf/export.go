package pdf

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/a3tai/pdf-orgstruct/internal/orgstruct"
	"github.com/a3tai/pdf-orgstruct/internal/pdf/wrapper"
)

const (
	// DefaultDirPerm is used for output directories
	DefaultDirPerm = 0o750
	// DefaultFilePerm is used for written reports
	DefaultFilePerm = 0o644
)

// CSVHeader is the column order of the exported structure
var CSVHeader = []string{"level", "code", "description", "x_position", "page"}

// WriteCSV writes one row per item under CSVHeader
func WriteCSV(w io.Writer, items []orgstruct.StructuredItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, item := range items {
		row := []string{
			string(item.Level),
			item.Code,
			item.Description,
			strconv.FormatFloat(item.XPosition, 'f', -1, 64),
			strconv.Itoa(item.Page),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for code %s: %w", item.Code, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// LayoutLines renders pages as coordinate annotated text.
//
// Each page starts with "# === PAGE N === [size: WxH]" followed by one
// "[block:line:x,y] text" entry per non-blank line, coordinates truncated to
// integers, and ends with an empty line.
func LayoutLines(pages []*wrapper.Page) []string {
	var lines []string
	for _, page := range pages {
		lines = append(lines, fmt.Sprintf("# === PAGE %d === [size: %sx%s]",
			page.Number, formatDimension(page.Size.Width), formatDimension(page.Size.Height)))
		for bi, block := range page.Blocks {
			for li, line := range block.Lines {
				text := line.Text()
				if strings.TrimSpace(text) == "" {
					continue
				}
				origin := line.Origin()
				lines = append(lines, fmt.Sprintf("[%d:%d:%d,%d] %s",
					bi, li, truncate(origin.X), truncate(origin.Y), text))
			}
		}
		lines = append(lines, "")
	}
	return lines
}

// WriteLayout writes LayoutLines separated by newlines
func WriteLayout(w io.Writer, pages []*wrapper.Page) error {
	_, err := io.WriteString(w, strings.Join(LayoutLines(pages), "\n"))
	return err
}

// writeFile creates path inside an existing or newly created directory and streams content into it
func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPerm); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, DefaultFilePerm)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// OutputName returns the base name of a document without its extension
func OutputName(documentPath string) string {
	base := filepath.Base(documentPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CSVPath returns the CSV report path for a document
func CSVPath(outputDir, documentPath string) string {
	return filepath.Join(outputDir, OutputName(documentPath)+"_org_structure.csv")
}

// LayoutPath returns the layout dump path for a document
func LayoutPath(outputDir, documentPath string) string {
	return filepath.Join(outputDir, OutputName(documentPath)+".txt")
}

func truncate(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(v)
}

func formatDimension(v float64) string {
	if v == math.Trunc(v) {
		return strconv.Itoa(int(v))
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
