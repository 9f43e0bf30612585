package mail

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	gomail "github.com/emersion/go-message/mail"

	"github.com/nordbok/invoice-ingest/constants"
)

type IMAPConfig struct {
	Addr     string // host:port, implicit TLS
	Username string
	Password string
	Folder   string // default INBOX
}

// IMAPMailbox implements Mailbox over a single IMAP connection. It is
// not safe for concurrent use; the batch intake is sequential anyway.
type IMAPMailbox struct {
	cfg    IMAPConfig
	conn   *client.Client
	logger *slog.Logger
}

func DialIMAP(cfg IMAPConfig, logger *slog.Logger) (*IMAPMailbox, error) {
	if cfg.Folder == "" {
		cfg.Folder = "INBOX"
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := client.DialTLS(cfg.Addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial imap %s: %w", cfg.Addr, err)
	}
	if err := conn.Login(cfg.Username, cfg.Password); err != nil {
		_ = conn.Logout()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	logger.Info("mail.imap.connected", "addr", cfg.Addr, "folder", cfg.Folder)
	return &IMAPMailbox{cfg: cfg, conn: conn, logger: logger}, nil
}

func (m *IMAPMailbox) Close() error {
	return m.conn.Logout()
}

func (m *IMAPMailbox) Status(_ context.Context) (Status, error) {
	st, err := m.conn.Status(m.cfg.Folder, []imap.StatusItem{imap.StatusMessages, imap.StatusUnseen})
	if err != nil {
		return Status{}, fmt.Errorf("imap status: %w", err)
	}
	return Status{Messages: int(st.Messages), Unseen: int(st.Unseen)}, nil
}

// Fetch searches the folder and pulls envelope plus body for the newest
// matches. Messages without a usable attachment still come back; dedup
// needs their Message-Id.
func (m *IMAPMailbox) Fetch(ctx context.Context, criteria Criteria) ([]Message, error) {
	if _, err := m.conn.Select(m.cfg.Folder, true); err != nil {
		return nil, fmt.Errorf("imap select %s: %w", m.cfg.Folder, err)
	}

	sc := imap.NewSearchCriteria()
	if criteria.Subject != "" {
		sc.Header.Add("Subject", criteria.Subject)
	}
	if criteria.From != "" {
		sc.Header.Add("From", criteria.From)
	}
	ids, err := m.conn.Search(sc)
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if criteria.Limit > 0 && len(ids) > criteria.Limit {
		ids = ids[len(ids)-criteria.Limit:] // newest last in sequence order
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, section.FetchItem()}

	ch := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- m.conn.Fetch(seqset, items, ch)
	}()

	var out []Message
	for raw := range ch {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		msg := m.decode(raw, section)
		out = append(out, msg)
	}
	if err := <-done; err != nil {
		return out, fmt.Errorf("imap fetch: %w", err)
	}
	m.logger.Info("mail.imap.fetched", "folder", m.cfg.Folder, "matched", len(ids), "messages", len(out))
	return out, nil
}

func (m *IMAPMailbox) decode(raw *imap.Message, section *imap.BodySectionName) Message {
	msg := Message{ReceivedAt: raw.InternalDate}
	if raw.Envelope != nil {
		msg.ID = raw.Envelope.MessageId
		msg.Subject = raw.Envelope.Subject
		if len(raw.Envelope.From) > 0 {
			msg.From = raw.Envelope.From[0].Address()
		}
	}

	body := raw.GetBody(section)
	if body == nil {
		m.logger.Warn("mail.imap.no_body", "message_id", msg.ID)
		return msg
	}
	mr, err := gomail.CreateReader(body)
	if err != nil {
		m.logger.Warn("mail.imap.parse_failed", "message_id", msg.ID, "error", err)
		return msg
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			m.logger.Warn("mail.imap.part_failed", "message_id", msg.ID, "error", err)
			break
		}
		if att, ok := decodePart(part); ok {
			msg.Attachments = append(msg.Attachments, att)
		}
	}
	return msg
}

// decodePart keeps attachment parts, and inline parts that carry a
// filename with an allowed extension.
func decodePart(part *gomail.Part) (Attachment, bool) {
	var filename, ct string
	switch h := part.Header.(type) {
	case *gomail.AttachmentHeader:
		filename, _ = h.Filename()
		ct, _, _ = h.ContentType()
	case *gomail.InlineHeader:
		// inline parts carry no Content-Disposition filename; scanners
		// usually put one in the Content-Type name parameter instead
		var params map[string]string
		ct, params, _ = h.ContentType()
		filename = params["name"]
	default:
		return Attachment{}, false
	}
	filename = strings.TrimSpace(filename)
	if filename == "" || !constants.IsAllowedExt(filepath.Ext(filename)) {
		return Attachment{}, false
	}

	data, err := io.ReadAll(part.Body)
	if err != nil || len(data) == 0 {
		return Attachment{}, false
	}
	return Attachment{Filename: filename, ContentType: ct, Data: data}, true
}
