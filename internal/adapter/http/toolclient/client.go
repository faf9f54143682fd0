package toolclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gitlab.com/appserver.net/internal/core/ports/primary"
	"gitlab.com/appserver.net/internal/core/ports/secondary"
	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/static/errs"
)

const maxErrorBody = 512

var _ secondary.ToolProvider = (*Provider)(nil)

// Provider fetches tool definitions from a tool server over HTTP
type Provider struct {
	baseURL    string
	httpClient *http.Client
	logger     primary.Logger
}

// NewProvider creates a provider for the tool server at baseURL, e.g. http://localhost:8080
func NewProvider(baseURL string, timeout time.Duration, logger primary.Logger) *Provider {
	return &Provider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Provide performs GET /api/tools/{name}
func (p *Provider) Provide(ctx context.Context, name string) (*domain.ToolDefinition, error) {
	endpoint := fmt.Sprintf("%s/api/tools/%s", p.baseURL, url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tool request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Error("Tool server request failed", "tool", name, "url", endpoint, "error", err)
		return nil, fmt.Errorf("failed to fetch tool %s: %w", name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownTool, name)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("tool server returned %d for %s: %s", resp.StatusCode, name, strings.TrimSpace(string(body)))
	}

	var def domain.ToolDefinition
	if err := json.NewDecoder(resp.Body).Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to decode tool %s: %w", name, err)
	}
	if def.Name == "" {
		def.Name = name
	}
	return &def, nil
}
