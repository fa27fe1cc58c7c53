package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/mentions/internal/authority"
	"github.com/mesh-intelligence/mentions/pkg/types"
)

// searchableColumns are the record columns a filter may reference.
var searchableColumns = map[string]bool{}

func init() {
	for _, col := range metadataColumns {
		searchableColumns[col] = true
	}
}

// searchOps maps filter operators to SQL.
var searchOps = map[string]string{
	"=":  "=",
	"!=": "!=",
	"<>": "!=",
}

// SearchMetadatas answers a search_metadatas filter. Without ordering,
// results come back in commit order. A window with To > From limits the
// result to rows [From, To); a zero To only skips the first From rows.
func (b *Backend) SearchMetadatas(ctx context.Context, f authority.Filter) ([]types.MetadataRecord, error) {
	query, args, err := buildSearch(f)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrLedgerDetached
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search metadata: %w", err)
	}
	return scanRecords(rows)
}

// buildSearch translates a filter into SQL. Column names are checked
// against the schema before being interpolated.
func buildSearch(f authority.Filter) (string, []any, error) {
	var conditions []string
	var args []any
	for _, q := range f.Query {
		if !searchableColumns[q.Column] {
			return "", nil, fmt.Errorf("%w: %q", types.ErrInvalidFilter, q.Column)
		}
		op, ok := searchOps[q.Op]
		if !ok {
			return "", nil, fmt.Errorf("%w: operator %q", types.ErrInvalidFilter, q.Op)
		}
		conditions = append(conditions, q.Column+" "+op+" ?")
		args = append(args, q.Query)
	}

	query := selectMetadata
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var order []string
	for _, o := range f.Ordering {
		if !searchableColumns[o.Column] {
			return "", nil, fmt.Errorf("%w: %q", types.ErrInvalidFilter, o.Column)
		}
		dir := "ASC"
		if strings.EqualFold(o.Sort, "desc") {
			dir = "DESC"
		}
		order = append(order, o.Column+" "+dir)
	}
	order = append(order, "seq ASC")
	query += " ORDER BY " + strings.Join(order, ", ")

	switch {
	case f.To > f.From:
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.To-f.From, f.From)
	case f.To == 0 && f.From > 0:
		query += fmt.Sprintf(" LIMIT -1 OFFSET %d", f.From)
	}
	return query, args, nil
}
