package imapclient

import (
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap"
	imapcl "github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/sirupsen/logrus"
)

// Message is a simplified inbound email, enough for request parsing.
type Message struct {
	SeqNum  uint32
	Subject string
	From    string
	Body    string
}

// Client polls an IMAP inbox for unread mail. Each Poll call dials a
// fresh connection, so a dropped connection never wedges the worker.
type Client struct {
	Addr     string
	Username string
	Password string
	Folder   string
	Logger   *logrus.Logger
}

func New(addr, username, password string, logger *logrus.Logger) *Client {
	return &Client{Addr: addr, Username: username, Password: password, Folder: "INBOX", Logger: logger}
}

// Poll fetches up to limit unread messages and passes each to handle.
// Messages for which handle returns true are flagged \Seen so they are
// not delivered again on the next poll.
func (c *Client) Poll(limit int, handle func(Message) bool) error {
	conn, err := imapcl.DialTLS(c.Addr, nil)
	if err != nil {
		return fmt.Errorf("imap dial %s: %w", c.Addr, err)
	}
	defer func() { _ = conn.Logout() }()

	if err := conn.Login(c.Username, c.Password); err != nil {
		return fmt.Errorf("imap login: %w", err)
	}

	if _, err := conn.Select(c.Folder, false); err != nil {
		return fmt.Errorf("imap select %s: %w", c.Folder, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	ids, err := conn.Search(criteria)
	if err != nil {
		return fmt.Errorf("imap search: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() { done <- conn.Fetch(seqset, items, messages) }()

	var processed []uint32
	for msg := range messages {
		m := Message{SeqNum: msg.SeqNum}
		if msg.Envelope != nil {
			m.Subject = msg.Envelope.Subject
			if len(msg.Envelope.From) > 0 {
				m.From = msg.Envelope.From[0].Address()
			}
		}
		if body := msg.GetBody(section); body != nil {
			text, err := readTextBody(body)
			if err != nil {
				c.Logger.WithError(err).WithField("seq", msg.SeqNum).Warn("failed to read message body")
			}
			m.Body = text
		}
		if handle(m) {
			processed = append(processed, m.SeqNum)
		}
	}
	if err := <-done; err != nil {
		return fmt.Errorf("imap fetch: %w", err)
	}

	if len(processed) > 0 {
		seen := new(imap.SeqSet)
		seen.AddNum(processed...)
		op := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := conn.Store(seen, op, []interface{}{imap.SeenFlag}, nil); err != nil {
			return fmt.Errorf("imap store seen: %w", err)
		}
	}
	return nil
}

// readTextBody walks the MIME parts and returns the first text part,
// preferring text/plain over text/html.
func readTextBody(r io.Reader) (string, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", err
	}
	var htmlFallback string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return htmlFallback, err
		}
		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		mediaType, _, _ := header.ContentType()
		switch {
		case strings.EqualFold(mediaType, "text/plain"):
			b, err := io.ReadAll(part.Body)
			if err != nil {
				return "", err
			}
			return string(b), nil
		case strings.EqualFold(mediaType, "text/html") && htmlFallback == "":
			b, err := io.ReadAll(part.Body)
			if err == nil {
				htmlFallback = string(b)
			}
		}
	}
	return htmlFallback, nil
}
