// Package leadsapi is a client for the external lead-generation endpoint.
package leadsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"
)

// Client talks to the leads and target-audience persistence endpoints.
type Client interface {
	GenerateLeads(ctx context.Context, req LeadsRequest) (*LeadsResponse, error)
	SaveTargetAudience(ctx context.Context, req SaveAudienceRequest) error
}

// LeadsRequest is the body for POST /leads.
type LeadsRequest struct {
	Inputs         model.LightningInputs `json:"inputs"`
	TargetAudience model.TargetAudience  `json:"targetAudienceData"`
	CompanySummary string                `json:"companySummary"`
	SizeCategory   string                `json:"sizeCategory,omitempty"`
	TrackerAnonID  string                `json:"trackerAnonId,omitempty"`
}

// LeadsResponse is the body returned by POST /leads. Leads may arrive as a
// structured array or as raw text the caller must parse.
type LeadsResponse struct {
	Leads    []model.ProspectRecord `json:"-"`
	RawLeads string                 `json:"-"`
}

// UnmarshalJSON accepts both the structured and the raw-string leads shape.
func (r *LeadsResponse) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Leads json.RawMessage `json:"leads"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if len(envelope.Leads) == 0 {
		return nil
	}
	if envelope.Leads[0] == '"' {
		return json.Unmarshal(envelope.Leads, &r.RawLeads)
	}
	return json.Unmarshal(envelope.Leads, &r.Leads)
}

// SaveAudienceRequest is the body for POST /save-target-audience.
type SaveAudienceRequest struct {
	Inputs         model.LightningInputs `json:"inputs"`
	TargetAudience model.TargetAudience  `json:"targetAudienceData"`
}

// StatusError is returned on a non-2xx response.
type StatusError struct {
	StatusCode int
	Details    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("leadsapi: unexpected status %d: %s", e.StatusCode, e.Details)
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a leads API client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) GenerateLeads(ctx context.Context, req LeadsRequest) (*LeadsResponse, error) {
	respBody, err := c.post(ctx, "/leads", req)
	if err != nil {
		return nil, err
	}

	var result LeadsResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "leadsapi: unmarshal leads")
	}
	return &result, nil
}

func (c *httpClient) SaveTargetAudience(ctx context.Context, req SaveAudienceRequest) error {
	_, err := c.post(ctx, "/save-target-audience", req)
	return err
}

func (c *httpClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrapf(err, "leadsapi: marshal %s", path)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "leadsapi: create request %s", path)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrapf(err, "leadsapi: send %s", path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "leadsapi: read %s", path)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Details string `json:"details"`
		}
		_ = json.Unmarshal(respBody, &e)
		return nil, &StatusError{StatusCode: resp.StatusCode, Details: e.Details}
	}
	return respBody, nil
}
