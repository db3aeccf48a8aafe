package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/homesim/internal/models"
)

const requestTimeout = 5 * time.Second

// Status is the body of GET /api/status.
type Status struct {
	Success     bool               `json:"success"`
	States      models.States      `json:"states"`
	Environment models.Environment `json:"environment"`
}

type StatusClient struct {
	logger  *log.Logger
	baseURL string
	client  *http.Client
}

func NewStatusClient(logger *log.Logger, baseURL string) *StatusClient {
	return &StatusClient{
		logger:  logger,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
	}
}

func (c *StatusClient) GET(path string) ([]byte, error) {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Error calling homesim api", "path", path, "status", resp.Status)
		return nil, fmt.Errorf("unexpected status from %s: %s", path, resp.Status)
	}
	return body, nil
}

func (c *StatusClient) Status() (Status, error) {
	body, err := c.GET("/api/status")
	if err != nil {
		return Status{}, fmt.Errorf("error reading status: %w", err)
	}

	status := Status{}
	if err := json.Unmarshal(body, &status); err != nil {
		return Status{}, fmt.Errorf("error parsing status response: %w", err)
	}
	return status, nil
}
