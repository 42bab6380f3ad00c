package notion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inbox2notion/pkg/models"
)

type capturedPage struct {
	Parent struct {
		DatabaseID string `json:"database_id"`
	} `json:"parent"`
	Properties map[string]struct {
		Title []struct {
			Text struct {
				Content string `json:"content"`
			} `json:"text"`
		} `json:"title"`
		MultiSelect []struct {
			Name string `json:"name"`
		} `json:"multi_select"`
		Select *struct {
			Name string `json:"name"`
		} `json:"select"`
		Date *struct {
			Start string `json:"start"`
		} `json:"date"`
	} `json:"properties"`
	Children []struct {
		Type      string `json:"type"`
		Paragraph struct {
			RichText []struct {
				Text struct {
					Content string `json:"content"`
				} `json:"text"`
			} `json:"rich_text"`
		} `json:"paragraph"`
	} `json:"children"`
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTask() *models.EmailTask {
	return &models.EmailTask{
		MessageID: "<hw3@uni.example>",
		Subject:   "Homework 3",
		Body:      "Submit by Friday.",
		FromAddr:  "prof@uni.example",
		TaskTypes: []string{"assignment", "deadline"},
		DueDate:   "2024-12-31",
	}
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	var gotPage capturedPage
	var gotAuth, gotVersion, gotPath, gotMethod string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Notion-Version")
		if err := json.NewDecoder(r.Body).Decode(&gotPage); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"object":"page","id":"p1"}`))
	}))
	defer server.Close()

	c := NewClient(Config{Token: "secret", DatabaseID: "db1", BaseURL: server.URL}, quietLogger())

	if err := c.CreateTask(context.Background(), testTask()); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/v1/pages" {
		t.Errorf("Expected POST /v1/pages, got %s %s", gotMethod, gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Unexpected Authorization header: %q", gotAuth)
	}
	if gotVersion != "2022-06-28" {
		t.Errorf("Unexpected Notion-Version header: %q", gotVersion)
	}
	if gotPage.Parent.DatabaseID != "db1" {
		t.Errorf("Unexpected parent database: %q", gotPage.Parent.DatabaseID)
	}

	name := gotPage.Properties["Name"]
	if len(name.Title) != 1 || name.Title[0].Text.Content != "Homework 3" {
		t.Errorf("Unexpected title property: %+v", name)
	}

	taskType := gotPage.Properties["Task Type"]
	if len(taskType.MultiSelect) != 2 || taskType.MultiSelect[0].Name != "assignment" || taskType.MultiSelect[1].Name != "deadline" {
		t.Errorf("Unexpected task types: %+v", taskType.MultiSelect)
	}

	status := gotPage.Properties["Status"]
	if status.Select == nil || status.Select.Name != "New" {
		t.Errorf("Expected status New, got %+v", status.Select)
	}

	due := gotPage.Properties["Due Date"]
	if due.Date == nil || due.Date.Start != "2024-12-31" {
		t.Errorf("Unexpected due date: %+v", due.Date)
	}

	if len(gotPage.Children) != 1 {
		t.Fatalf("Expected 1 body block, got %d", len(gotPage.Children))
	}
	para := gotPage.Children[0]
	if para.Type != "paragraph" || para.Paragraph.RichText[0].Text.Content != "Submit by Friday." {
		t.Errorf("Unexpected body block: %+v", para)
	}
}

func TestCreateTaskNoDueDate(t *testing.T) {
	t.Parallel()

	var gotPage capturedPage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPage)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(Config{Token: "secret", DatabaseID: "db1", BaseURL: server.URL}, quietLogger())

	task := testTask()
	task.DueDate = ""
	if err := c.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if _, ok := gotPage.Properties["Due Date"]; ok {
		t.Error("Expected the Due Date property to be omitted")
	}
}

func TestCreateTaskChunksLongBody(t *testing.T) {
	t.Parallel()

	var gotPage capturedPage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPage)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(Config{Token: "secret", DatabaseID: "db1", BaseURL: server.URL}, quietLogger())

	task := testTask()
	task.Body = strings.Repeat("a", 4500)
	if err := c.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if len(gotPage.Children) != 3 {
		t.Fatalf("Expected 3 blocks for 4500 chars, got %d", len(gotPage.Children))
	}
	for i, want := range []int{2000, 2000, 500} {
		got := len(gotPage.Children[i].Paragraph.RichText[0].Text.Content)
		if got != want {
			t.Errorf("Block %d: expected %d chars, got %d", i, want, got)
		}
	}
}

func TestCreateTaskPermanentFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"object":"error","code":"validation_error"}`))
	}))
	defer server.Close()

	c := NewClient(Config{Token: "secret", DatabaseID: "db1", BaseURL: server.URL}, quietLogger())

	err := c.CreateTask(context.Background(), testTask())
	if err == nil {
		t.Fatal("Expected an error for a 400 response")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", apiErr.StatusCode)
	}
	if !apiErr.Permanent() {
		t.Errorf("Expected 400 to be permanent, got %v", err)
	}
}

func TestCreateTaskTransientFailures(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway} {
		status := status
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := NewClient(Config{Token: "secret", DatabaseID: "db1", BaseURL: server.URL}, quietLogger())
		err := c.CreateTask(context.Background(), testTask())
		server.Close()

		if err == nil {
			t.Fatalf("Expected an error for status %d", status)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("Expected APIError for status %d, got %v", status, err)
		}
		if apiErr.Permanent() {
			t.Errorf("Expected status %d to be transient, got permanent: %v", status, err)
		}
	}
}
