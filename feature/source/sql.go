package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dirsync/core/bean"
	"dirsync/core/database"
	"dirsync/core/syncoptions"
	"dirsync/core/utils"

	"gorm.io/gorm"
)

// ErrNoQuery is returned when a task declares neither a query nor a table.
var ErrNoQuery = errors.New("task source has no query nor table")

// SQLSource reads beans from a SQL database.
type SQLSource struct {
	db        *gorm.DB
	query     string
	table     string
	keyColumn string
	binary    map[string]bool
}

// NewSQLSource creates a source reading the rows selected by the task.
func NewSQLSource(db *gorm.DB, task *syncoptions.Task) (*SQLSource, error) {
	if db == nil {
		return nil, errors.New("database connection is not available")
	}
	cfg := task.Source
	if cfg.Query == "" && cfg.Table == "" {
		return nil, fmt.Errorf("task %s: %w", task.Name, ErrNoQuery)
	}
	s := &SQLSource{
		db:        db,
		query:     cfg.Query,
		table:     cfg.Table,
		keyColumn: strings.ToLower(cfg.KeyColumn),
		binary:    make(map[string]bool),
	}
	for _, name := range task.BinaryAttributes {
		s.binary[strings.ToLower(name)] = true
	}
	return s, nil
}

// List implements connector.Source.
func (s *SQLSource) List(ctx context.Context) ([]*bean.Bean, error) {
	query := s.query
	binary := s.binary
	if query == "" {
		query = fmt.Sprintf("SELECT * FROM `%s`", s.table)
		detected, err := database.BinaryColumns(s.db.WithContext(ctx), s.table)
		if err != nil {
			return nil, err
		}
		for name := range s.binary {
			detected[name] = true
		}
		binary = detected
	}

	rows, err := s.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to query source: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read source columns: %w", err)
	}

	var beans []*bean.Bean
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		for i := range values {
			values[i] = nil
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		b, err := s.rowToBean(columns, values, binary)
		if err != nil {
			return nil, fmt.Errorf("source row %d: %w", len(beans), err)
		}
		beans = append(beans, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source rows: %w", err)
	}
	return beans, nil
}

func (s *SQLSource) rowToBean(columns []string, values []any, binary map[string]bool) (*bean.Bean, error) {
	b := bean.New("")
	for i, col := range columns {
		val := values[i]
		if val == nil {
			continue
		}
		key := strings.ToLower(col)
		if key == s.keyColumn {
			b.DN = utils.ToString(val)
			continue
		}
		if raw, ok := val.([]byte); ok && binary[key] {
			b.Put(col, bean.Binary(raw))
			continue
		}
		b.Put(col, bean.Text(utils.ToString(val)))
	}
	return b, b.Validate()
}
