// Package nhtsa is the client for the public NHTSA vPIC vehicle API:
// VIN decoding and recall lookup. No authentication is required.
package nhtsa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bmw-vin-connector/internal/common/errors"
	"bmw-vin-connector/internal/common/httpx"
	"bmw-vin-connector/internal/common/vin"
)

const DefaultBaseURL = "https://vpic.nhtsa.dot.gov/api/vehicles"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an API client. The client is stateless and safe to
// reuse across VINs.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpx.NewClient(timeout).Underlying(),
	}
}

// NewClientWithHTTP creates a client with a caller-supplied HTTP client,
// used by tests to substitute the transport.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// VehicleInfo carries the decoded vPIC variables the connector cares
// about. Values are raw API strings; coercion happens in the mapper.
type VehicleInfo struct {
	VIN            string
	Make           string
	Model          string
	ModelYear      string
	BodyClass      string
	EngineType     string
	Transmission   string
	DriveType      string
	PlantCity      string
	ProductionDate string
}

// RecallInfo is one recall campaign entry as returned by the recall
// lookup endpoint.
type RecallInfo struct {
	CampaignNumber     string `json:"CampaignNumber"`
	Component          string `json:"Component"`
	Summary            string `json:"Summary"`
	Consequence        string `json:"Consequence"`
	Remedy             string `json:"Remedy"`
	ReportReceivedDate string `json:"ReportReceivedDate"`
}

// decodeResponse is the vPIC decode envelope: a Results array of
// Variable/Value pairs.
type decodeResponse struct {
	Count   int    `json:"Count"`
	Message string `json:"Message"`
	Results []struct {
		Variable string `json:"Variable"`
		Value    string `json:"Value"`
	} `json:"Results"`
}

type recallResponse struct {
	Count   int          `json:"Count"`
	Message string       `json:"Message"`
	Results []RecallInfo `json:"Results"`
}

// DecodeVIN fetches and decodes the vehicle attributes for a VIN.
// The VIN is validated before any request is issued.
func (c *Client) DecodeVIN(ctx context.Context, v string) (*VehicleInfo, error) {
	if err := vin.Validate(v); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/decodevin/%s?format=json", c.baseURL, v)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var decoded decodeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errors.NewParseError(endpoint, err)
	}
	if len(decoded.Results) == 0 {
		return nil, errors.NewParseError(endpoint, fmt.Errorf("empty Results array"))
	}

	// Values that are empty or "0" are treated as absent.
	vars := make(map[string]string, len(decoded.Results))
	for _, item := range decoded.Results {
		if item.Value != "" && item.Value != "0" {
			vars[item.Variable] = item.Value
		}
	}

	return &VehicleInfo{
		VIN:            v,
		Make:           vars["Make"],
		Model:          vars["Model"],
		ModelYear:      vars["Model Year"],
		BodyClass:      vars["Body Class"],
		EngineType:     vars["Engine Configuration"],
		Transmission:   vars["Transmission Style"],
		DriveType:      vars["Drive Type"],
		PlantCity:      vars["Plant City"],
		ProductionDate: vars["Date Produced"],
	}, nil
}

// RecallsByVIN fetches all recall campaigns recorded for a VIN. A VIN
// with no recalls yields an empty slice, not an error.
func (c *Client) RecallsByVIN(ctx context.Context, v string) ([]RecallInfo, error) {
	if err := vin.Validate(v); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/recalls/vin/%s?format=json", c.baseURL, v)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var recalls recallResponse
	if err := json.Unmarshal(body, &recalls); err != nil {
		return nil, errors.NewParseError(endpoint, err)
	}

	return recalls.Results, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.NewNetworkError(endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetworkError(endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewHTTPError(endpoint, resp.StatusCode, truncate(string(body), 512))
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
