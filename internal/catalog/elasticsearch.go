package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"matchpet-workers/internal/common/config"
	"matchpet-workers/internal/common/errors"
	"matchpet-workers/internal/common/logger"
	"matchpet-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	gobreaker "github.com/sony/gobreaker/v2"
)

// animalDoc is the indexed shape of an animal record.
type animalDoc struct {
	ID             string          `json:"id"`
	DesertionNo    string          `json:"desertionNo"`
	CareAddr       string          `json:"careAddr"`
	CityDistrict   string          `json:"cityDistrict"`
	Status         string          `json:"status"`
	ProcessState   string          `json:"processState"`
	SpecialMark    string          `json:"specialMark"`
	KindCd         string          `json:"kindCd"`
	SexCd          string          `json:"sexCd"`
	Age            string          `json:"age"`
	Weight         string          `json:"weight"`
	Popfile        string          `json:"popfile"`
	Filename       string          `json:"filename"`
	EnergyLevel    string          `json:"energyLevel"`
	Temperament    string          `json:"temperament"`
	DeviceRequired bool            `json:"deviceRequired"`
	Overlay        json.RawMessage `json:"inferredOverlay"`
}

func (d animalDoc) toModel() (*models.Animal, error) {
	a := &models.Animal{
		ID:             d.ID,
		DesertionNo:    d.DesertionNo,
		ShelterAddress: d.CareAddr,
		Status:         models.ParseAnimalStatus(d.Status),
		ProcessState:   d.ProcessState,
		SpecialMark:    d.SpecialMark,
		Species:        SpeciesOf(d.KindCd),
		Breed:          SanitizeBreed(d.KindCd),
		Sex:            d.SexCd,
		Age:            d.Age,
		Weight:         d.Weight,
		Size:           SizeClassOf(d.Weight),
		PhotoURL:       PhotoURL(d.Popfile, d.Filename),
		Energy:         models.ParseLevel(d.EnergyLevel),
		Temperament:    models.ParseStyle(d.Temperament),
		DeviceRequired: d.DeviceRequired,
	}
	overlay, err := ParseOverlay(d.Overlay)
	a.Overlay = overlay
	return a, err
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source animalDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchIndex serves animal candidates from Elasticsearch behind a circuit breaker.
type SearchIndex struct {
	client  *elasticsearch.Client
	index   string
	breaker *gobreaker.CircuitBreaker[[]*models.Animal]
	logger  logger.Logger
}

func NewSearchIndex(client *elasticsearch.Client, index string, cfg config.BreakerConfig, log logger.Logger) *SearchIndex {
	s := &SearchIndex{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "catalog.search", "index": index}),
	}

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	s.breaker = gobreaker.NewCircuitBreaker[[]*models.Animal](gobreaker.Settings{
		Name:        "animal-search",
		MaxRequests: cfg.MaxRequests,
		Interval:    config.GetDuration(cfg.Interval),
		Timeout:     config.GetDuration(cfg.Timeout),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn("circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
	return s
}

func (s *SearchIndex) GetAnimal(ctx context.Context, id string) (*models.Animal, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"id": id},
		},
	}
	animals, err := s.search(ctx, "get_animal", query, 1)
	if err != nil {
		return nil, err
	}
	if len(animals) == 0 {
		return nil, errors.NewResourceNotFoundError("animals", "id: "+id)
	}
	return animals[0], nil
}

func (s *SearchIndex) ListCandidates(ctx context.Context, district string, limit int) ([]*models.Animal, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"cityDistrict": district}},
					map[string]interface{}{"terms": map[string]interface{}{"status": CandidateStatuses}},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"id": "asc"},
		},
	}
	return s.search(ctx, "list_candidates", query, limit)
}

func (s *SearchIndex) search(ctx context.Context, queryType string, query map[string]interface{}, size int) ([]*models.Animal, error) {
	animals, err := s.breaker.Execute(func() ([]*models.Animal, error) {
		return s.do(ctx, query, size)
	})
	if err != nil {
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errors.NewCatalogUnavailableError("elasticsearch", err)
		}
		return nil, errors.NewSearchQueryFailedError(queryType, err)
	}
	return animals, nil
}

func (s *SearchIndex) do(ctx context.Context, query map[string]interface{}, size int) ([]*models.Animal, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	start := time.Now()
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]*models.Animal, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		a, err := hit.Source.toModel()
		if err != nil {
			s.logger.Warn("ignoring malformed overlay", map[string]interface{}{"animalId": hit.Source.ID, "error": err})
		}
		out = append(out, a)
	}

	s.logger.Debug("search completed", map[string]interface{}{
		"hits":       len(out),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return out, nil
}

// State exposes the breaker state for readiness reporting.
func (s *SearchIndex) State() string {
	return s.breaker.State().String()
}
