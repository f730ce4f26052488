package prescription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// InteractionFinding is one interaction reported by a checker.
type InteractionFinding struct {
	DrugA    string `json:"drug_a"`
	DrugB    string `json:"drug_b"`
	Severity string `json:"severity"`
	Effect   string `json:"effect"`
}

// InteractionChecker answers pairwise interaction queries for a medication
// list. Errors from remote implementations are caught by the engine and
// never abort validation.
type InteractionChecker interface {
	Check(ctx context.Context, medications []string) ([]InteractionFinding, error)
}

// RemoteChecker queries an external drug-interaction service over HTTP.
type RemoteChecker struct {
	url    string
	client *http.Client
}

func NewRemoteChecker(url string) *RemoteChecker {
	return &RemoteChecker{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (r *RemoteChecker) Check(ctx context.Context, medications []string) ([]InteractionFinding, error) {
	body, err := json.Marshal(map[string]interface{}{"medications": medications})
	if err != nil {
		return nil, fmt.Errorf("encode interaction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build interaction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", r.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("interaction service returned status %d", resp.StatusCode)
	}

	var payload struct {
		Interactions []InteractionFinding `json:"interactions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode interaction response: %w", err)
	}
	return payload.Interactions, nil
}

// localInteractions runs the static pairwise table against the medication
// list. Matching is unordered substring containment in both directions.
func localInteractions(ref ReferenceSource, medications []string) []InteractionFinding {
	var findings []InteractionFinding
	for i := 0; i < len(medications); i++ {
		for j := i + 1; j < len(medications); j++ {
			a := normalize(medications[i])
			b := normalize(medications[j])
			for _, pair := range ref.Interactions() {
				if (containsEither(a, pair.DrugA) && containsEither(b, pair.DrugB)) ||
					(containsEither(a, pair.DrugB) && containsEither(b, pair.DrugA)) {
					findings = append(findings, InteractionFinding{
						DrugA:    medications[i],
						DrugB:    medications[j],
						Severity: pair.Severity,
						Effect:   pair.Effect,
					})
				}
			}
		}
	}
	return findings
}
