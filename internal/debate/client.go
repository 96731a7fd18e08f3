package debate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/aletheia/internal/model"
)

const (
	defaultTimeout    = 120 * time.Second
	defaultAgentCount = 3
)

// Client talks to the optional multi-agent debate microservice. The
// service runs the agents and aggregates their verdicts itself; the
// client only carries the claim and evidence over and the result back.
type Client struct {
	endpoint   string
	agentCount int
	enabled    bool
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a debate client. The client counts as enabled only
// when debate is switched on and an endpoint is configured.
func NewClient(cfg model.DebateConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	agentCount := cfg.AgentCount
	if agentCount <= 0 {
		agentCount = defaultAgentCount
	}

	return &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		agentCount: agentCount,
		enabled:    cfg.Enabled && cfg.Endpoint != "",
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Enabled reports whether debate verification is available.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Result is the debate service's aggregated answer.
type Result struct {
	Verdict        string                `json:"verdict"`
	Confidence     float64               `json:"confidence"`
	Explanation    string                `json:"explanation"`
	AgentResponses []model.AgentResponse `json:"agent_responses"`
}

type debateRequest struct {
	Claim      string           `json:"claim"`
	Evidence   []model.Evidence `json:"evidence"`
	AgentCount int              `json:"agent_count"`
}

// Debate runs debate-based verification for one claim. It never fails:
// a disabled or unreachable service yields a neutral unverified result.
func (c *Client) Debate(ctx context.Context, claim string, evidence []model.Evidence) Result {
	if !c.enabled {
		return Result{
			Verdict:        "unverified",
			Confidence:     0.0,
			Explanation:    "Debate service not enabled",
			AgentResponses: []model.AgentResponse{},
		}
	}

	result, err := c.post(ctx, debateRequest{
		Claim:      claim,
		Evidence:   evidence,
		AgentCount: c.agentCount,
	})
	if err != nil {
		c.logger.Warn("debate service call failed",
			zap.String("endpoint", c.endpoint),
			zap.Error(err))
		return Result{
			Verdict:        "unverified",
			Confidence:     0.0,
			Explanation:    fmt.Sprintf("Debate service unavailable: %v", err),
			AgentResponses: []model.AgentResponse{},
		}
	}

	if result.AgentResponses == nil {
		result.AgentResponses = []model.AgentResponse{}
	}
	return *result
}

// post makes an HTTP request to the debate service
func (c *Client) post(ctx context.Context, payload debateRequest) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/debate", c.endpoint)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("debate service returned %d: %s", httpResp.StatusCode, truncateBody(respBody))
	}

	var result Result
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &result, nil
}

func truncateBody(body []byte) string {
	const limit = 200
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
