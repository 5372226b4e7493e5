package tools

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/toolgate-ai/toolgate/internal/protocol"
	"github.com/toolgate-ai/toolgate/internal/registry"
)

// deniedKeywords rejects any query containing a mutating statement
// keyword anywhere in its text. This is a coarse substring filter, not a
// SQL parser; it also catches legitimate identifiers that happen to
// contain a keyword, which is the documented (loose) policy.
var deniedKeywords = []string{"insert", "update", "delete", "drop", "create", "alter", "exec"}

// SQLTool executes read-only queries against the demo database.
type SQLTool struct {
	db *sql.DB
}

func NewSQLTool(db *sql.DB) *SQLTool {
	return &SQLTool{db: db}
}

func (t *SQLTool) Descriptor() registry.ToolDescriptor {
	return registry.ToolDescriptor{
		Name:        "database_query",
		Description: "Execute read-only SQL queries on the demo database",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "SQL query to execute (SELECT only)",
				},
				"params": map[string]any{
					"type":        "array",
					"description": "Query parameters",
				},
			},
			"required": []any{"query"},
		},
		Handler: t.handle,
	}
}

func (t *SQLTool) handle(ctx context.Context, args map[string]any) (*protocol.ToolCallResult, error) {
	query, _ := args["query"].(string)

	if err := checkQuery(query); err != nil {
		return nil, err
	}

	var params []any
	if raw, ok := args["params"].([]any); ok {
		params = raw
	}

	rows, err := t.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	table, count, err := formatRows(rows)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return protocol.Text("Query executed successfully. No results found."), nil
	}
	return protocol.Text("Query results:\n```\n%s\n```", table), nil
}

// checkQuery enforces the read-only policy: the trimmed query must start
// with SELECT and must not contain any denied keyword.
func checkQuery(query string) error {
	lowered := strings.ToLower(strings.TrimSpace(query))
	if !strings.HasPrefix(lowered, "select") {
		return protocol.Errorf(protocol.KindDomain, "only SELECT queries are allowed")
	}
	for _, kw := range deniedKeywords {
		if strings.Contains(lowered, kw) {
			return protocol.Errorf(protocol.KindDomain, "query contains prohibited keywords")
		}
	}
	return nil
}

func formatRows(rows *sql.Rows) (string, int, error) {
	cols, err := rows.Columns()
	if err != nil {
		return "", 0, err
	}

	var sb strings.Builder
	header := strings.Join(cols, " | ")
	sb.WriteString(header)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", len(header)))

	count := 0
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return "", 0, err
		}
		cells := make([]string, len(cols))
		for i, v := range values {
			cells[i] = formatCell(v)
		}
		sb.WriteString("\n")
		sb.WriteString(strings.Join(cells, " | "))
		count++
	}
	if err := rows.Err(); err != nil {
		return "", 0, err
	}
	return sb.String(), count, nil
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
