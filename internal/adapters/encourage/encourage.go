package encourage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/jcortez/swinglab/internal/domain/model"
)

// ErrEncourage wraps failures from the encouragement provider.
var ErrEncourage = errors.New("encouragement request failed")

const defaultTimeout = 5 * time.Second

// Summary is the compact swing description sent to the provider. Metrics are
// ordered best to worst so the provider can praise strengths first.
type Summary struct {
	AthleteID  string   `json:"athlete_id"`
	Overall    int      `json:"overall"`
	Label      string   `json:"label"`
	Percentile float64  `json:"percentile,omitempty"`
	Strengths  []string `json:"strengths,omitempty"`
	Weakest    []string `json:"weakest,omitempty"`
}

// Encourager produces a short encouragement line for a scored swing.
type Encourager interface {
	Encourage(ctx context.Context, s Summary) (string, error)
}

// BuildSummary assembles a Summary from a score, ranking metrics by their
// normalized quality.
func BuildSummary(athleteID string, score model.ScoreResult, percentile float64) Summary {
	type ranked struct {
		name    string
		quality float64
	}
	all := make([]ranked, 0, len(score.PerMetric))
	for name, q := range score.PerMetric {
		all = append(all, ranked{name: name, quality: q})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].quality != all[j].quality {
			return all[i].quality > all[j].quality
		}
		return all[i].name < all[j].name
	})

	s := Summary{
		AthleteID:  athleteID,
		Overall:    score.Overall,
		Label:      score.Label,
		Percentile: percentile,
		Weakest:    score.Weakest,
	}
	for i := 0; i < len(all) && i < 2; i++ {
		s.Strengths = append(s.Strengths, all[i].name)
	}
	return s
}

// HTTPEncourager posts the summary to an external service that returns
// {"message": "..."}.
type HTTPEncourager struct {
	url    string
	client *http.Client
}

// NewHTTP builds an encourager talking to the given endpoint.
func NewHTTP(url string) *HTTPEncourager {
	return &HTTPEncourager{
		url:    url,
		client: &http.Client{Timeout: defaultTimeout},
	}
}

func (e *HTTPEncourager) Encourage(ctx context.Context, s Summary) (string, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncourage, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncourage, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncourage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrEncourage, resp.StatusCode)
	}

	var out struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncourage, err)
	}
	return out.Message, nil
}

// Noop is the disabled default. It returns an empty message without touching
// the network.
type Noop struct{}

func (Noop) Encourage(context.Context, Summary) (string, error) { return "", nil }
