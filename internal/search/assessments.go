// Package search keeps a searchable history of credit assessments in Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"agri-credit-workers/internal/credit"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// AssessmentMapping is the index mapping for AssessmentDocument.
const AssessmentMapping = `{
  "mappings": {
    "properties": {
      "applicationId":     {"type": "keyword"},
      "farmerId":          {"type": "keyword"},
      "profile":           {"type": "keyword"},
      "score":             {"type": "integer"},
      "riskTier":          {"type": "keyword"},
      "recommendation":    {"type": "keyword"},
      "eligible":          {"type": "boolean"},
      "maxLoanAmount":     {"type": "scaled_float", "scaling_factor": 100},
      "recommendedAmount": {"type": "scaled_float", "scaling_factor": 100},
      "termMonths":        {"type": "integer"},
      "interestRate":      {"type": "float"},
      "reasons":           {"type": "text"},
      "assessedAt":        {"type": "date"}
    }
  }
}`

type AssessmentDocument struct {
	ApplicationID     string   `json:"applicationId"`
	FarmerID          string   `json:"farmerId"`
	Profile           string   `json:"profile"`
	Score             int      `json:"score"`
	RiskTier          string   `json:"riskTier"`
	Recommendation    string   `json:"recommendation,omitempty"`
	Eligible          bool     `json:"eligible"`
	MaxLoanAmount     float64  `json:"maxLoanAmount"`
	RecommendedAmount float64  `json:"recommendedAmount"`
	TermMonths        int      `json:"termMonths"`
	InterestRate      float64  `json:"interestRate"`
	Reasons           []string `json:"reasons"`
	AssessedAt        string   `json:"assessedAt"`
}

func NewAssessmentDocument(applicationID, farmerID string, r credit.ScoreResult, at time.Time) AssessmentDocument {
	return AssessmentDocument{
		ApplicationID:     applicationID,
		FarmerID:          farmerID,
		Profile:           string(r.Profile),
		Score:             r.Score,
		RiskTier:          string(r.RiskTier),
		Recommendation:    string(r.Recommendation),
		Eligible:          r.Eligible,
		MaxLoanAmount:     r.MaxLoanAmount.InexactFloat64(),
		RecommendedAmount: r.RecommendedAmount.InexactFloat64(),
		TermMonths:        r.TermMonths,
		InterestRate:      r.InterestRate,
		Reasons:           r.Reasons,
		AssessedAt:        at.UTC().Format(time.RFC3339),
	}
}

// DocumentID is stable per application and profile, so a retried job
// overwrites its earlier document.
func (d AssessmentDocument) DocumentID() string {
	return d.ApplicationID + "-" + d.Profile
}

type Indexer interface {
	IndexAssessment(ctx context.Context, doc AssessmentDocument) error
}

type AssessmentIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewAssessmentIndexer(client *elasticsearch.Client, index string) *AssessmentIndexer {
	return &AssessmentIndexer{client: client, index: index}
}

func (i *AssessmentIndexer) IndexAssessment(ctx context.Context, doc AssessmentDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: doc.DocumentID(),
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("index assessment: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index assessment: %s: %s", res.Status(), bytes.TrimSpace(msg))
	}
	return nil
}
