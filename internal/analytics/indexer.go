// internal/analytics/indexer.go
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"rental-pool/internal/common/database"
	"rental-pool/internal/common/logger"
	"rental-pool/internal/models"
)

const indexName = "pool-analytics"

// Indexer mirrors PoolAnalytics snapshots into Elasticsearch for dashboards.
// Strictly an observability sink: the relational row is the record of truth.
type Indexer struct {
	es     *database.ElasticsearchClient
	logger logger.Logger
}

func NewIndexer(es *database.ElasticsearchClient, log logger.Logger) *Indexer {
	return &Indexer{
		es:     es,
		logger: log.WithFields(map[string]interface{}{"component": "analytics-indexer"}),
	}
}

func (i *Indexer) IndexSnapshot(ctx context.Context, snap models.PoolAnalytics) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal analytics snapshot: %w", err)
	}

	res, err := i.es.Client.Index(
		indexName,
		bytes.NewReader(body),
		i.es.Client.Index.WithContext(ctx),
		i.es.Client.Index.WithDocumentID(snap.ID),
	)
	if err != nil {
		return fmt.Errorf("index analytics snapshot: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index analytics snapshot: %s", res.Status())
	}

	i.logger.Debug("analytics snapshot indexed", map[string]interface{}{
		"id":       snap.ID,
		"location": snap.Location,
	})
	return nil
}
