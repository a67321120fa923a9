package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"

	"bmw-vin-connector/internal/common/errors"
	"bmw-vin-connector/internal/common/logger"
	"bmw-vin-connector/internal/models"
)

// RecallIndexer mirrors recall rows into an Elasticsearch index so the
// support team can search campaign text. Documents are created with the
// warehouse key as the document id; a 409 means the campaign was
// already indexed and is not an error.
type RecallIndexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewRecallIndexer(client *elasticsearch.Client, index string, log logger.Logger) *RecallIndexer {
	return &RecallIndexer{
		client: client,
		index:  index,
		logger: log,
	}
}

// IndexRecalls writes the given recalls to the search index. It returns
// the number of documents newly created.
func (r *RecallIndexer) IndexRecalls(ctx context.Context, records []models.RecallRecord) (int, error) {
	created := 0
	for _, record := range records {
		doc, err := json.Marshal(record)
		if err != nil {
			return created, errors.NewSearchIndexFailedError(err)
		}

		res, err := r.client.Create(
			r.index,
			record.Key(),
			bytes.NewReader(doc),
			r.client.Create.WithContext(ctx),
		)
		if err != nil {
			return created, errors.NewSearchIndexFailedError(err)
		}

		if res.StatusCode == http.StatusConflict {
			res.Body.Close()
			continue
		}
		if res.IsError() {
			status := res.Status()
			res.Body.Close()
			return created, errors.NewSearchIndexFailedError(
				fmt.Errorf("index %s: %s", r.index, status))
		}
		res.Body.Close()
		created++
	}

	if created > 0 {
		r.logger.Debug("Indexed recall documents", map[string]interface{}{
			"index":   r.index,
			"created": created,
		})
	}
	return created, nil
}
