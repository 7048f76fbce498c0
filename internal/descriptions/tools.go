package descriptions

import "sort"

// Tool names exposed over MCP
const (
	ToolExtract         = "orgstruct_extract"
	ToolExportCSV       = "orgstruct_export_csv"
	ToolLayout          = "orgstruct_layout"
	ToolSearchDirectory = "orgstruct_search_directory"
	ToolValidateFile    = "orgstruct_validate_file"
	ToolServerInfo      = "orgstruct_server_info"
)

// Tool descriptions with practical examples and use cases

const (
	ExtractDescription = `Recover the agency / department / sub-department / unit code hierarchy of a budget PDF.

**When to use:** A document lists four digit organization codes whose nesting is only shown by indentation.

**How it works:** Every text span starting with a four digit code is collected with its x position. Positions are grouped into clusters, each cluster becomes a level interval (A, 1, 2, 3 from left to right) and every code is labelled by the interval it falls in, or by the nearest one.

**Examples:**
• "Show the organization hierarchy of city_2023_budget.pdf"
• "Which departments sit under agency 0100 in adopted_2022.pdf?"

**Output:** thresholds per level, level counts and the indented hierarchy ordered by page and code.

**Best practices:** Run orgstruct_validate_file first for unknown files. Use orgstruct_layout when levels look wrong to inspect the raw positions.`

	ExportCSVDescription = `Recover the code hierarchy of a PDF and save it as CSV.

**When to use:** The hierarchy should be loaded into a spreadsheet, database or another tool.

**Output file:** <name>_org_structure.csv in the output directory with columns level, code, description, x_position, page.

**Examples:**
• "Export the org structure of budget_2021.pdf"
• "Write the hierarchy of every 2020 budget to reports/"

**Best practices:** output_directory must lie inside the configured PDF or output directory.`

	LayoutDescription = `Dump the coordinate annotated text of a PDF.

**When to use:** Checking why a code received an unexpected level, or inspecting how text is positioned on a page.

**Output format:** one header per page "# === PAGE N === [size: WxH]" followed by "[block:line:x,y] text" for every non-blank line.

**Examples:**
• "Show the layout of page 3 of budget_2022.pdf"
• "Dump the positioned text of adopted_2019.pdf"

**Best practices:** Pass page to keep the response small for long documents.`

	SearchDirectoryDescription = `Find PDF files in a directory with optional fuzzy name matching and fiscal year filtering.

**When to use:** Locating budget documents before extraction, or narrowing a collection to a range of years.

**Year detection:** the year comes from the file name, trying "_YYYY_budget.pdf", "_YYYY.pdf", "YYYY_budget.pdf" and finally any four digits. With a year range set, files without a year are skipped.

**Examples:**
• "List all budget PDFs from 2019 to 2021"
• "Find files matching 'adopted' in /data/budgets"

**Best practices:** leave directory empty to search the configured directory.`

	ValidateFileDescription = `Verify that a file is a readable PDF before processing.

**When to use:** Before extracting from files of unknown origin, or when extraction fails.

**Checks:** extension, size limit, non-empty content and a full structural validation of the PDF.

**Examples:**
• "Is uploaded_budget.pdf a valid PDF?"`

	ServerInfoDescription = `Describe the server: directories, size limit, level inference settings, available tools and the PDF files in the default directory.

**When to use:** At the start of a session to learn where documents live and how levels are inferred.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolExtract:         ExtractDescription,
	ToolExportCSV:       ExportCSVDescription,
	ToolLayout:          LayoutDescription,
	ToolSearchDirectory: SearchDirectoryDescription,
	ToolValidateFile:    ValidateFileDescription,
	ToolServerInfo:      ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the names of all tools in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
