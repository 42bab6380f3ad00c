package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"inbox2notion/pkg/models"
)

// notionVersion pins the API revision the request shapes below target.
const notionVersion = "2022-06-28"

// richTextLimit is Notion's maximum length of one rich text object.
const richTextLimit = 2000

// maxBodyBlocks bounds the page body for very long emails.
const maxBodyBlocks = 50

// Config for the Notion client
type Config struct {
	Token      string
	DatabaseID string
	BaseURL    string // e.g., https://api.notion.com
}

// Client publishes tasks as pages in a Notion database
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Notion API client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.notion.com"
	}
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With("component", "notion"),
	}
}

// createPageRequest is the POST /v1/pages payload
type createPageRequest struct {
	Parent     pageParent          `json:"parent"`
	Properties map[string]property `json:"properties"`
	Children   []block             `json:"children,omitempty"`
}

type pageParent struct {
	DatabaseID string `json:"database_id"`
}

type property struct {
	Title       []richText    `json:"title,omitempty"`
	MultiSelect []selectValue `json:"multi_select,omitempty"`
	Select      *selectValue  `json:"select,omitempty"`
	Date        *dateValue    `json:"date,omitempty"`
}

type selectValue struct {
	Name string `json:"name"`
}

type dateValue struct {
	Start string `json:"start"`
}

type richText struct {
	Text textContent `json:"text"`
}

type textContent struct {
	Content string `json:"content"`
}

type block struct {
	Object    string     `json:"object"`
	Type      string     `json:"type"`
	Paragraph *paragraph `json:"paragraph,omitempty"`
}

type paragraph struct {
	RichText []richText `json:"rich_text"`
}

// CreateTask creates one page in the configured database. Non-2xx responses
// come back as *APIError so callers can tell permanent failures from
// transient ones.
func (c *Client) CreateTask(ctx context.Context, task *models.EmailTask) error {
	req := createPageRequest{
		Parent: pageParent{DatabaseID: c.config.DatabaseID},
		Properties: map[string]property{
			"Name":      {Title: []richText{textOf(truncate(task.Subject, richTextLimit))}},
			"Task Type": {MultiSelect: multiSelectOf(task.TaskTypes)},
			"Status":    {Select: &selectValue{Name: "New"}},
		},
		Children: bodyBlocks(task.Body),
	}
	if task.DueDate != "" {
		req.Properties["Due Date"] = property{Date: &dateValue{Start: task.DueDate}}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/pages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	httpReq.Header.Set("Notion-Version", notionVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	c.logger.Debug("created task page", "subject", task.Subject, "types", task.TaskTypes, "due", task.DueDate)
	return nil
}

// bodyBlocks splits the plaintext body into paragraph blocks that fit the
// rich text length cap
func bodyBlocks(body string) []block {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}

	var blocks []block
	for _, chunk := range chunkRunes(body, richTextLimit) {
		if len(blocks) == maxBodyBlocks {
			break
		}
		blocks = append(blocks, block{
			Object:    "block",
			Type:      "paragraph",
			Paragraph: &paragraph{RichText: []richText{textOf(chunk)}},
		})
	}
	return blocks
}

func textOf(s string) richText {
	return richText{Text: textContent{Content: s}}
}

func multiSelectOf(names []string) []selectValue {
	values := make([]selectValue, 0, len(names))
	for _, name := range names {
		values = append(values, selectValue{Name: name})
	}
	return values
}

// chunkRunes splits on rune boundaries so multi-byte text never tears
func chunkRunes(s string, size int) []string {
	runes := []rune(s)
	var chunks []string
	for len(runes) > size {
		chunks = append(chunks, string(runes[:size]))
		runes = runes[size:]
	}
	return append(chunks, string(runes))
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
