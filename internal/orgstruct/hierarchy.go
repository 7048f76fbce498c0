package orgstruct

// Context is the enclosing agency, department and sub-department codes at a point in the listing
type Context struct {
	Agency        string `json:"agency,omitempty"`
	Department    string `json:"department,omitempty"`
	SubDepartment string `json:"sub_department,omitempty"`
}

// HierarchyEntry pairs an item with the context it appears under
type HierarchyEntry struct {
	Item    StructuredItem `json:"item"`
	Context Context        `json:"context"`
}

// Walk visits items in order and tracks the current context.
//
// Entering a level resets every deeper context field. Unit and unknown items
// leave the context untouched. The walk never changes an item's level.
func Walk(items []StructuredItem) []HierarchyEntry {
	entries := make([]HierarchyEntry, 0, len(items))
	var ctx Context

	for _, item := range items {
		switch item.Level {
		case LevelAgency:
			ctx = Context{Agency: item.Code}
		case LevelDepartment:
			ctx.Department = item.Code
			ctx.SubDepartment = ""
		case LevelSubDepartment:
			ctx.SubDepartment = item.Code
		}
		entries = append(entries, HierarchyEntry{Item: item, Context: ctx})
	}

	return entries
}
