package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

const defaultTimeout = 60 * time.Second

// Config describes how to reach the hosted inference service.
type Config struct {
	BaseURL string
	Token   string
	// Timeout bounds each call, including time spent waiting for a cold
	// model to load. Defaults to 60s.
	Timeout time.Duration
	// DisableWaitForModel turns off the service-side "wait for model" option.
	DisableWaitForModel bool
	HTTPClient          *http.Client
}

// Client calls the three inference capabilities the pipeline consumes:
// zero-shot classification, sentiment scoring and text generation.
type Client struct {
	baseURL      string
	token        string
	timeout      time.Duration
	waitForModel bool
	http         *http.Client
	logger       *logging.Logger
}

// NewClient validates the configuration and returns a ready-to-use client.
func NewClient(cfg Config, logger *logging.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("inference: base URL required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		token:        cfg.Token,
		timeout:      timeout,
		waitForModel: !cfg.DisableWaitForModel,
		http:         httpClient,
		logger:       logger,
	}, nil
}

type requestOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type requestPayload struct {
	Inputs     string          `json:"inputs"`
	Parameters any             `json:"parameters,omitempty"`
	Options    *requestOptions `json:"options,omitempty"`
}

type zeroShotParameters struct {
	CandidateLabels    []string `json:"candidate_labels"`
	HypothesisTemplate string   `json:"hypothesis_template,omitempty"`
	MultiLabel         bool     `json:"multi_label"`
}

// Classify runs zero-shot classification. Input is truncated to MaxClassifyInput.
func (c *Client) Classify(ctx context.Context, req ZeroShotRequest) ([]ZeroShotResult, error) {
	if len(req.CandidateLabels) == 0 {
		return nil, errors.New("inference: candidate labels required")
	}
	payload := requestPayload{
		Inputs: Truncate(req.Text, MaxClassifyInput),
		Parameters: zeroShotParameters{
			CandidateLabels:    req.CandidateLabels,
			HypothesisTemplate: req.HypothesisTemplate,
			MultiLabel:         req.MultiLabel,
		},
	}
	data, err := c.call(ctx, "classify", req.Model, payload)
	if err != nil {
		return nil, err
	}

	// Single-sequence calls may come back as a bare object.
	var out []ZeroShotResult
	if err := json.Unmarshal(data, &out); err != nil {
		var single ZeroShotResult
		if errSingle := json.Unmarshal(data, &single); errSingle != nil {
			return nil, &ServiceError{Op: "classify", Model: req.Model, Message: "malformed response", Err: err}
		}
		out = []ZeroShotResult{single}
	}
	return out, nil
}

// Sentiment scores text. Input is truncated to MaxSentimentInput.
func (c *Client) Sentiment(ctx context.Context, model, text string) ([][]LabelScore, error) {
	payload := requestPayload{Inputs: Truncate(text, MaxSentimentInput)}
	data, err := c.call(ctx, "sentiment", model, payload)
	if err != nil {
		return nil, err
	}
	var out [][]LabelScore
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &ServiceError{Op: "sentiment", Model: model, Message: "malformed response", Err: err}
	}
	return out, nil
}

// Generate renders system and prompt into a single chat-style input and
// returns the first generated text with any role echo removed.
func (c *Client) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	inputs := req.Prompt
	if strings.TrimSpace(req.System) != "" {
		inputs = fmt.Sprintf("%s\n\nUser:\n%s\nAssistant:", req.System, req.Prompt)
	}
	payload := requestPayload{
		Inputs:     inputs,
		Parameters: req.Params,
	}
	data, err := c.call(ctx, "generate", req.Model, payload)
	if err != nil {
		return "", err
	}
	resp, err := decodeGeneration(data)
	if err != nil {
		return "", &ServiceError{Op: "generate", Model: req.Model, Message: "malformed response", Err: err}
	}
	return CleanGeneration(resp.text), nil
}

func (c *Client) call(ctx context.Context, op, model string, payload requestPayload) ([]byte, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("inference: %s: model id required", op)
	}
	if c.waitForModel {
		payload.Options = &requestOptions{WaitForModel: true}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("inference: failed to encode payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+model, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("inference: request build failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Use-Cache", "true")
	if strings.TrimSpace(c.token) != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ServiceError{Op: op, Model: model, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceError{Op: op, Model: model, StatusCode: resp.StatusCode, Message: "read response failed", Err: err}
	}
	c.logger.Debug("inference call completed",
		"op", op,
		"model", model,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServiceError{Op: op, Model: model, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	if msg, ok := errorField(data); ok {
		return nil, &ServiceError{Op: op, Model: model, StatusCode: resp.StatusCode, Message: msg}
	}
	return data, nil
}

// errorField reports the "error" member of an object body, if any.
func errorField(data []byte) (string, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var body struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &body); err != nil || len(body.Error) == 0 || string(body.Error) == "null" {
		return "", false
	}
	var msg string
	if err := json.Unmarshal(body.Error, &msg); err == nil {
		return msg, msg != ""
	}
	return string(body.Error), true
}
