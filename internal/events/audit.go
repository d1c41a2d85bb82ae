// internal/events/audit.go
package events

import (
	"bytes"
	"context"

	"mortgage-api/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8"
)

// AuditSink keeps a searchable copy of every published envelope in
// Elasticsearch. Indexing is best effort like the publish itself.
type AuditSink struct {
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewAuditSink(es *elasticsearch.Client, index string, log logger.Logger) *AuditSink {
	return &AuditSink{
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "event-audit"}),
	}
}

// Index writes one envelope document keyed by its trace id.
func (a *AuditSink) Index(ctx context.Context, traceID string, envelopeJSON []byte) {
	res, err := a.es.Index(
		a.index,
		bytes.NewReader(envelopeJSON),
		a.es.Index.WithDocumentID(traceID),
		a.es.Index.WithContext(ctx),
	)
	if err != nil {
		a.logger.WithError(err).Warn("audit index failed", map[string]interface{}{
			"traceId": traceID,
		})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		a.logger.Warn("audit index rejected", map[string]interface{}{
			"traceId": traceID,
			"status":  res.Status(),
		})
	}
}
