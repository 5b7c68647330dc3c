package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/conclave-dao/conclave/execution"
	"github.com/conclave-dao/conclave/storage"
)

// LocalPayloadFetcher builds execution payloads from the stored proposal
// itself. It is the default for self-contained nodes where the proposal
// carries its own action and parameters.
type LocalPayloadFetcher struct {
	Store *storage.Store
}

func (f *LocalPayloadFetcher) FetchPayload(ctx context.Context, proposalID, chainID string) (*execution.Payload, error) {
	p, err := f.Store.Proposals.Get(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("load proposal %s: %w", proposalID, err)
	}
	payload := &execution.Payload{
		Action:   p.Action,
		Params:   p.Params,
		ChainID:  chainID,
		Deadline: p.ExpiresAt,
	}
	if v, ok := p.Params["executorAgentId"].(string); ok {
		payload.ExecutorAgentID = v
	}
	return payload, nil
}

// HTTPPayloadFetcher asks a remote payload service to assemble the
// execution payload, for deployments where actions need server-side
// enrichment before they hit the chain.
type HTTPPayloadFetcher struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPPayloadFetcher(baseURL string) *HTTPPayloadFetcher {
	return &HTTPPayloadFetcher{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *HTTPPayloadFetcher) FetchPayload(ctx context.Context, proposalID, chainID string) (*execution.Payload, error) {
	body, err := json.Marshal(map[string]string{
		"proposalId": proposalID,
		"chainId":    chainID,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+"/payloads", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payload service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payload service returned %d for proposal %s", resp.StatusCode, proposalID)
	}

	var payload execution.Payload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &payload, nil
}
