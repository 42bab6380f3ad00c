package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"inbox2notion/pkg/models"
)

// ClientConfig configuration for the IMAP reader
type ClientConfig struct {
	Email       string
	Password    string
	Server      string // host:port
	DialTimeout time.Duration
}

// Client reads the inbox one pass at a time. Every FetchSince opens a fresh
// connection and logs out before returning; nothing is kept between passes.
type Client struct {
	config ClientConfig
	logger *slog.Logger
}

// NewClient creates a new IMAP reader
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	return &Client{
		config: cfg,
		logger: logger.With("component", "email"),
	}
}

// FetchSince returns inbox messages whose internal date is on or after since
func (c *Client) FetchSince(ctx context.Context, since time.Time) ([]*models.RawEmail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	imapClient, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer imapClient.Logout()

	// Read-only select: processing must not change message flags
	if _, err := imapClient.Select("INBOX", true); err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	uids, err := imapClient.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	if len(uids) == 0 {
		c.logger.Debug("no messages in window", "since", since)
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, imap.FetchInternalDate, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)

	go func() {
		done <- imapClient.UidFetch(seqSet, items, messages)
	}()

	var emails []*models.RawEmail
	for msg := range messages {
		emails = append(emails, c.parseMessage(msg, section))
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}

	c.logger.Debug("fetched messages", "since", since, "count", len(emails))
	return emails, nil
}

// connect dials the server with TLS and logs in
func (c *Client) connect(ctx context.Context) (*client.Client, error) {
	c.logger.Debug("connecting to IMAP server", "server", c.config.Server)

	timeout := c.config.DialTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", c.config.Server, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	// The protocol library is not context-aware; the pass deadline lands on
	// the connection so a hung fetch cannot outlive its trigger
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	imapClient, err := client.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create IMAP client: %w", err)
	}

	if err := imapClient.Login(c.config.Email, c.config.Password); err != nil {
		imapClient.Logout()
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	return imapClient, nil
}

// parseMessage converts an IMAP message into a RawEmail. Decode faults are
// logged and cost at most the faulty part, never the whole message.
func (c *Client) parseMessage(msg *imap.Message, section *imap.BodySectionName) *models.RawEmail {
	email := &models.RawEmail{ReceivedAt: msg.InternalDate}

	if msg.Envelope != nil {
		email.Subject = msg.Envelope.Subject
		email.MessageID = msg.Envelope.MessageId
		if len(msg.Envelope.From) > 0 {
			from := msg.Envelope.From[0]
			email.FromAddr = from.Address()
			email.FromName = from.PersonalName
		}
	}

	if email.MessageID == "" {
		email.MessageID = syntheticID(msg.Envelope)
		c.logger.Debug("message without Message-ID", "synthetic_id", email.MessageID, "subject", email.Subject)
	}

	if bodyReader := msg.GetBody(section); bodyReader != nil {
		email.BodyText, email.BodyHTML = c.readParts(bodyReader)
	}

	return email
}

// readParts collects every text/plain and text/html part of the message
func (c *Client) readParts(r io.Reader) (text, html string) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		c.logger.Warn("failed to create mail reader", "error", err)
		return "", ""
	}

	var textParts, htmlParts []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			c.logger.Warn("failed to read part", "error", err)
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		ct, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			c.logger.Warn("failed to read part body", "content_type", ct, "error", err)
			continue
		}

		switch {
		case strings.HasPrefix(ct, "text/plain"):
			textParts = append(textParts, string(body))
		case strings.HasPrefix(ct, "text/html"):
			htmlParts = append(htmlParts, string(body))
		}
	}

	return strings.Join(textParts, "\n"), strings.Join(htmlParts, "\n")
}

// syntheticID substitutes for a missing Message-ID header. It is derived
// from stable envelope fields, so the same message seen by two overlapping
// passes keeps one identity and dedups in the ledger. Mail with no envelope
// at all gets a random identity and is never suppressed.
func syntheticID(env *imap.Envelope) string {
	if env == nil {
		return fmt.Sprintf("<%s@inbox2notion.local>", uuid.NewString())
	}

	var from string
	if len(env.From) > 0 {
		from = env.From[0].Address()
	}
	seed := from + "|" + env.Date.UTC().Format(time.RFC3339) + "|" + env.Subject
	return fmt.Sprintf("<%s@inbox2notion.local>", uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)))
}
