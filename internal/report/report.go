// Package report renders recovered code hierarchies for people: an indented
// plain text listing for tool responses and a styled console variant for the
// command line.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/a3tai/pdf-orgstruct/internal/orgstruct"
	"github.com/a3tai/pdf-orgstruct/internal/pdf"
	"github.com/charmbracelet/lipgloss"
)

const indentUnit = "  "

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle for summary boxes
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)

	// levelStyles colour the label column by depth
	levelStyles = map[orgstruct.Level]lipgloss.Style{
		orgstruct.LevelAgency:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
		orgstruct.LevelDepartment:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		orgstruct.LevelSubDepartment: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		orgstruct.LevelUnit:          lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		orgstruct.LevelUnknown:       lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// HierarchyLines renders one line per entry, indented by depth.
//
// Agencies are preceded by an empty line. Unknown items are listed flush
// left so they stay visible, followed by the codes they appeared under.
func HierarchyLines(entries []orgstruct.HierarchyEntry) []string {
	return hierarchyLines(entries, func(_ orgstruct.Level, s string) string { return s })
}

// WriteHierarchy writes HierarchyLines to w
func WriteHierarchy(w io.Writer, entries []orgstruct.HierarchyEntry) error {
	for _, line := range HierarchyLines(entries) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func hierarchyLines(entries []orgstruct.HierarchyEntry, style func(orgstruct.Level, string) string) []string {
	lines := make([]string, 0, len(entries)+len(entries)/4)
	for _, entry := range entries {
		item := entry.Item
		if item.Level == orgstruct.LevelAgency && len(lines) > 0 {
			lines = append(lines, "")
		}

		depth := item.Level.Depth()
		if depth < 0 {
			depth = 0
		}

		label := style(item.Level, fmt.Sprintf("%s level %s", item.Level, item.Level.Name()))
		line := strings.TrimRight(fmt.Sprintf("%s%s code %s %s",
			strings.Repeat(indentUnit, depth), label, item.Code, item.Description), " ")
		if item.Level == orgstruct.LevelUnknown {
			if under := contextPath(entry.Context); under != "" {
				line += " (under " + under + ")"
			}
		}
		lines = append(lines, line)
	}
	return lines
}

// contextPath joins the set context codes from agency down, e.g. "0100/1001"
func contextPath(ctx orgstruct.Context) string {
	var codes []string
	for _, code := range []string{ctx.Agency, ctx.Department, ctx.SubDepartment} {
		if code != "" {
			codes = append(codes, code)
		}
	}
	return strings.Join(codes, "/")
}

// hierarchyOf returns the walked hierarchy of result, walking the items when
// the result was built without one
func hierarchyOf(result *pdf.OrgExtractResult) []orgstruct.HierarchyEntry {
	if len(result.Hierarchy) == len(result.Result.Items) {
		return result.Hierarchy
	}
	return orgstruct.Walk(result.Result.Items)
}

// ExtractionText is the plain text answer for one document
func ExtractionText(result *pdf.OrgExtractResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Document: %s\n", result.Path)
	fmt.Fprintf(&b, "Pages: %d, coded spans: %d\n", result.Pages, result.SpanCount)

	if result.Result.IsEmpty() {
		b.WriteString("No structured data found in the PDF.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Thresholds: %s\n", result.Result.Thresholds.String())
	fmt.Fprintf(&b, "Levels: %s\n", result.Result.LevelSummary())
	b.WriteString("\n")
	_ = WriteHierarchy(&b, hierarchyOf(result))
	fmt.Fprintf(&b, "\nExtracted %d items from the PDF.\n", len(result.Result.Items))
	return b.String()
}

// FormatExtraction renders a styled hierarchy with a summary box
func FormatExtraction(w io.Writer, result *pdf.OrgExtractResult) {
	header := fmt.Sprintf("%s %s\n%s %d  %s %d",
		dimStyle.Render("Document:"), titleStyle.Render(result.Path),
		dimStyle.Render("Pages:"), result.Pages,
		dimStyle.Render("Coded spans:"), result.SpanCount,
	)
	fmt.Fprintln(w, boxStyle.Render(header))

	if result.Result.IsEmpty() {
		fmt.Fprintln(w, dimStyle.Render("No structured data found in the PDF."))
		return
	}

	styled := hierarchyLines(hierarchyOf(result), func(lvl orgstruct.Level, s string) string {
		return levelStyles[lvl].Render(s)
	})
	for _, line := range styled {
		fmt.Fprintln(w, line)
	}

	summary := fmt.Sprintf("%s %s\n%s %s",
		dimStyle.Render("Thresholds:"), result.Result.Thresholds.String(),
		dimStyle.Render("Levels:"), result.Result.LevelSummary(),
	)
	if result.Result.HasUnknown() {
		summary += "\n" + errorStyle.Render("Some items could not be placed")
	}
	fmt.Fprintln(w, boxStyle.Render(summary))
}

// FormatBatchSummary renders the outcome of a batch run
func FormatBatchSummary(w io.Writer, summary *pdf.BatchSummary) {
	status := successStyle.Render("OK")
	if len(summary.Failed) > 0 {
		status = errorStyle.Render(fmt.Sprintf("%d FAILED", len(summary.Failed)))
	}

	content := titleStyle.Render("Batch Complete") + "\n" +
		fmt.Sprintf("%s %d  %s %d  %s %d  %s",
			dimStyle.Render("Found:"), summary.Found,
			dimStyle.Render("In range:"), summary.InRange,
			dimStyle.Render("Processed:"), summary.Succeeded,
			status,
		)
	if summary.TransactionID != "" {
		content += fmt.Sprintf("\n%s %s", dimStyle.Render("Transaction:"), summary.TransactionID)
	}
	if summary.LogFile != "" {
		content += fmt.Sprintf("\n%s %s", dimStyle.Render("Log:"), summary.LogFile)
	}
	for _, name := range summary.Failed {
		content += "\n" + errorStyle.Render("x") + " " + name
	}
	fmt.Fprintln(w, boxStyle.Render(content))
}
