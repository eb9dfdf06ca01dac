package warehouse

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Runner executes one read-only SQL statement against the warehouse and
// returns its rows. It is the only seam between the gateway and BigQuery,
// so tests can substitute a fake.
type Runner interface {
	RunQuery(ctx context.Context, sql string) (*ResultTable, error)
}

// Client wraps the BigQuery client bound to one project and execution region.
type Client struct {
	bq     *bigquery.Client
	logger *slog.Logger
}

// NewClient constructs the warehouse client. A credentials file path may be
// empty, in which case application-default credentials are used.
func NewClient(ctx context.Context, projectID, location, credentialsFile string, logger *slog.Logger) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	bq, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create BigQuery client: %w", err)
	}
	bq.Location = location

	logger.Info("Warehouse client initialized", "project", projectID, "location", location)
	return &Client{
		bq:     bq,
		logger: logger.With("component", "warehouse_client"),
	}, nil
}

// RunQuery executes sql synchronously and materializes all rows.
func (c *Client) RunQuery(ctx context.Context, sql string) (*ResultTable, error) {
	q := c.bq.Query(sql)
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read failed: %w", err)
	}

	table := &ResultTable{}
	for {
		var values []bigquery.Value
		err := it.Next(&values)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row iteration failed: %w", err)
		}

		// The schema is only populated after the first Next call.
		if table.Columns == nil {
			for _, field := range it.Schema {
				table.Columns = append(table.Columns, field.Name)
			}
		}

		row := make(Row, len(values))
		for i, v := range values {
			if i < len(table.Columns) {
				row[table.Columns[i]] = v
			}
		}
		table.Rows = append(table.Rows, row)
	}

	// Zero-row results still carry a schema for the column header.
	if table.Columns == nil {
		for _, field := range it.Schema {
			table.Columns = append(table.Columns, field.Name)
		}
	}

	c.logger.DebugContext(ctx, "Query executed", "rows", table.NumRows())
	return table, nil
}

// Close releases the underlying BigQuery client.
func (c *Client) Close() error {
	return c.bq.Close()
}
