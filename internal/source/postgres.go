package source

import (
	"context"
	"fmt"

	"github.com/kingxl111/search-engine/pkg/config"
	"github.com/kingxl111/search-engine/pkg/postgres"
)

// PostgresSource streams documents from a relational table with title, url,
// and content columns.
type PostgresSource struct {
	client *postgres.Client
	table  string
}

// NewPostgresSource connects to Postgres using the given config.
func NewPostgresSource(cfg config.PostgresConfig) (*PostgresSource, error) {
	client, err := postgres.New(cfg)
	if err != nil {
		return nil, err
	}
	return &PostgresSource{client: client, table: cfg.Table}, nil
}

// Stream selects every row and emits it as a document.
func (s *PostgresSource) Stream(ctx context.Context, emit func(title, url, content string) error) error {
	// The table name comes from trusted config, not user input.
	rows, err := s.client.DB.QueryContext(ctx,
		fmt.Sprintf("SELECT title, url, content FROM %s ORDER BY id", s.table))
	if err != nil {
		return fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var title, url, content string
		if err := rows.Scan(&title, &url, &content); err != nil {
			return fmt.Errorf("scanning document row: %w", err)
		}
		if err := emit(title, url, content); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating document rows: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *PostgresSource) Close() error {
	return s.client.Close()
}
