package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"heritage-route-service/internal/domain"
	"heritage-route-service/internal/platform/obs"
	"heritage-route-service/internal/ports"
	"strings"
)

// SQL-backed implementation of the NodeRepository port.
type SQLNodeRepository struct {
	DB     *sql.DB
	Driver string
}

func NewSQLNodeRepository(conn *sql.DB, driver string) *SQLNodeRepository {
	return &SQLNodeRepository{DB: conn, Driver: driver}
}

var _ ports.NodeRepository = (*SQLNodeRepository)(nil)

// Return all nodes stored in the catalog, ordered by id.
func (s *SQLNodeRepository) ListNodes(ctx context.Context) (_ []domain.Node, err error) {
	defer obs.Time(ctx, "nodes.ListNodes")(&err)

	if s.DB == nil {
		return nil, errors.New("sql node repository: DB is nil")
	}

	query := `
	SELECT id, title, lat, lon
	FROM nodes
	ORDER BY id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list nodes: query nodes table: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// Return the nodes with the given ids in the order requested. Duplicate ids
// are returned once; an unknown id is an error.
func (s *SQLNodeRepository) GetNodes(ctx context.Context, ids []string) (_ []domain.Node, err error) {
	defer obs.Time(ctx, "nodes.GetNodes")(&err)

	if s.DB == nil {
		return nil, errors.New("sql node repository: DB is nil")
	}

	seen := make(map[string]struct{}, len(ids))
	uniq := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}

	if len(uniq) == 0 {
		return []domain.Node{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(uniq)), ", ")
	query := rebind(s.Driver, `
	SELECT id, title, lat, lon
	FROM nodes
	WHERE id IN (`+placeholders+`);
	`)

	args := make([]any, 0, len(uniq))
	for _, id := range uniq {
		args = append(args, id)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get nodes: query nodes table: %w", err)
	}
	defer rows.Close()

	found, err := scanNodes(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Node, len(found))
	for _, n := range found {
		byID[n.ID] = n
	}

	out := make([]domain.Node, 0, len(uniq))
	var missing []string
	for _, id := range uniq {
		n, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, n)
	}

	if len(missing) > 0 {
		return nil, &UnknownNodesError{IDs: missing}
	}

	return out, nil
}

// UnknownNodesError lists requested ids absent from the catalog.
type UnknownNodesError struct {
	IDs []string
}

func (e *UnknownNodesError) Error() string {
	return fmt.Sprintf("unknown node ids: %s", strings.Join(e.IDs, ", "))
}

func scanNodes(rows *sql.Rows) ([]domain.Node, error) {
	nodes := make([]domain.Node, 0, 32)
	for rows.Next() {
		var n domain.Node
		if err := rows.Scan(&n.ID, &n.Title, &n.Location.Lat, &n.Location.Lon); err != nil {
			return nil, fmt.Errorf("scan node row: %w", err)
		}
		nodes = append(nodes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("node row iteration: %w", err)
	}

	return nodes, nil
}
