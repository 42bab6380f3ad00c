package email

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
)

func testClient() *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(ClientConfig{Email: "student@uni.example"}, logger)
}

func plainMessage(t *testing.T, section *imap.BodySectionName) *imap.Message {
	t.Helper()

	raw := strings.Join([]string{
		"From: Prof Smith <prof@uni.example>",
		"To: student@uni.example",
		"Subject: Homework 3",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Submit by Friday.",
	}, "\r\n")

	return &imap.Message{
		Uid:          7,
		InternalDate: time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC),
		Envelope: &imap.Envelope{
			Subject:   "Homework 3",
			MessageId: "<hw3@uni.example>",
			From: []*imap.Address{
				{PersonalName: "Prof Smith", MailboxName: "prof", HostName: "uni.example"},
			},
		},
		Body: map[*imap.BodySectionName]imap.Literal{
			section: bytes.NewBufferString(raw),
		},
	}
}

func TestParseMessagePlainText(t *testing.T) {
	t.Parallel()
	c := testClient()

	section := &imap.BodySectionName{}
	got := c.parseMessage(plainMessage(t, section), section)

	if got.MessageID != "<hw3@uni.example>" {
		t.Errorf("Unexpected message id: %q", got.MessageID)
	}
	if got.Subject != "Homework 3" {
		t.Errorf("Unexpected subject: %q", got.Subject)
	}
	if got.FromAddr != "prof@uni.example" {
		t.Errorf("Unexpected sender: %q", got.FromAddr)
	}
	if got.FromName != "Prof Smith" {
		t.Errorf("Unexpected sender name: %q", got.FromName)
	}
	if strings.TrimSpace(got.BodyText) != "Submit by Friday." {
		t.Errorf("Unexpected body: %q", got.BodyText)
	}
	if got.BodyHTML != "" {
		t.Errorf("Expected no HTML body, got %q", got.BodyHTML)
	}
	if !got.ReceivedAt.Equal(time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected received time: %s", got.ReceivedAt)
	}
}

func TestParseMessageMultipart(t *testing.T) {
	t.Parallel()
	c := testClient()

	raw := strings.Join([]string{
		"From: Prof Smith <prof@uni.example>",
		"Subject: Quiz Friday",
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=b42",
		"",
		"--b42",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Quiz on Friday.",
		"--b42",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>Quiz on <b>Friday</b>.</p>",
		"--b42--",
		"",
	}, "\r\n")

	section := &imap.BodySectionName{}
	msg := &imap.Message{
		Envelope: &imap.Envelope{
			Subject:   "Quiz Friday",
			MessageId: "<quiz@uni.example>",
			From: []*imap.Address{
				{MailboxName: "prof", HostName: "uni.example"},
			},
		},
		Body: map[*imap.BodySectionName]imap.Literal{
			section: bytes.NewBufferString(raw),
		},
	}

	got := c.parseMessage(msg, section)

	if strings.TrimSpace(got.BodyText) != "Quiz on Friday." {
		t.Errorf("Unexpected text body: %q", got.BodyText)
	}
	if !strings.Contains(got.BodyHTML, "<b>Friday</b>") {
		t.Errorf("Expected HTML body to be kept, got %q", got.BodyHTML)
	}
}

func TestParseMessageConcatenatesPlainParts(t *testing.T) {
	t.Parallel()
	c := testClient()

	raw := strings.Join([]string{
		"From: Prof Smith <prof@uni.example>",
		"Subject: Two parts",
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=b7",
		"",
		"--b7",
		"Content-Type: text/plain",
		"",
		"First part.",
		"--b7",
		"Content-Type: text/plain",
		"",
		"Second part.",
		"--b7--",
		"",
	}, "\r\n")

	section := &imap.BodySectionName{}
	msg := &imap.Message{
		Envelope: &imap.Envelope{MessageId: "<two@uni.example>"},
		Body: map[*imap.BodySectionName]imap.Literal{
			section: bytes.NewBufferString(raw),
		},
	}

	got := c.parseMessage(msg, section)

	if !strings.Contains(got.BodyText, "First part.") || !strings.Contains(got.BodyText, "Second part.") {
		t.Errorf("Expected both plain parts, got %q", got.BodyText)
	}
}

func TestParseMessageSyntheticID(t *testing.T) {
	t.Parallel()
	c := testClient()

	section := &imap.BodySectionName{}
	env := &imap.Envelope{
		Subject: "No id",
		Date:    time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC),
		From:    []*imap.Address{{MailboxName: "prof", HostName: "uni.example"}},
	}

	first := c.parseMessage(&imap.Message{Envelope: env}, section)
	second := c.parseMessage(&imap.Message{Envelope: env}, section)

	if first.MessageID == "" {
		t.Fatal("Expected a synthetic identifier to be assigned")
	}
	// Overlapping fetch windows see the same message twice; a stable
	// identifier lets the ledger treat the second sighting as a duplicate
	if first.MessageID != second.MessageID {
		t.Errorf("Expected a stable synthetic identifier, got %q then %q", first.MessageID, second.MessageID)
	}
	if !strings.HasSuffix(first.MessageID, "@inbox2notion.local>") {
		t.Errorf("Unexpected synthetic identifier shape: %q", first.MessageID)
	}

	other := &imap.Envelope{Subject: "Different mail", Date: env.Date, From: env.From}
	third := c.parseMessage(&imap.Message{Envelope: other}, section)
	if third.MessageID == first.MessageID {
		t.Errorf("Expected distinct identifiers for distinct messages, both were %q", first.MessageID)
	}
}

func TestParseMessageNoEnvelope(t *testing.T) {
	t.Parallel()
	c := testClient()

	section := &imap.BodySectionName{}
	got := c.parseMessage(&imap.Message{}, section)

	if got.MessageID == "" {
		t.Error("Expected a synthetic identifier even without an envelope")
	}
	if got.FromAddr != "" || got.Subject != "" {
		t.Errorf("Expected empty metadata, got %+v", got)
	}
}
