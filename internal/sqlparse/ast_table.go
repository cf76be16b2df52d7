package sqlparse

import "strings"

// === Table Reference Nodes ===

// TableName represents a table name reference (up to 3-part: catalog.schema.name).
// All parts keep their source spelling.
type TableName struct {
	Catalog string
	Schema  string
	Name    string
	Alias   string
}

func (*TableName) node()         {}
func (*TableName) tableRefNode() {}

// QualifiedName returns the dot-joined name without the alias.
func (t *TableName) QualifiedName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{t.Catalog, t.Schema, t.Name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// DerivedTable represents a subquery in FROM clause.
type DerivedTable struct {
	Select *SelectStmt
	Alias  string
}

func (*DerivedTable) node()         {}
func (*DerivedTable) tableRefNode() {}

// LateralTable represents a LATERAL subquery.
type LateralTable struct {
	Select *SelectStmt
	Alias  string
}

func (*LateralTable) node()         {}
func (*LateralTable) tableRefNode() {}

// FuncTable represents a table-valued function in FROM (e.g., generate_series()).
type FuncTable struct {
	Func  *FuncCall
	Alias string
}

func (*FuncTable) node()         {}
func (*FuncTable) tableRefNode() {}
