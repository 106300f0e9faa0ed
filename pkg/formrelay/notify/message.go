// Package notify composes and sends emails carrying a single file attachment.
package notify

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"
)

const base64LineLen = 76

// attachmentTypes maps attachment extensions to content types.
var attachmentTypes = map[string]string{
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xlsm": "application/vnd.ms-excel.sheet.macroEnabled.12",
	".xls":  "application/vnd.ms-excel",
}

// Message is an email with a plain-text body and one attachment.
type Message struct {
	From       string
	To         []string
	Subject    string
	Body       string
	Attachment []byte
	Filename   string
	// Date defaults to the current time.
	Date time.Time
}

// Validate reports whether the message can be sent.
func (m Message) Validate() error {
	switch {
	case strings.TrimSpace(m.From) == "":
		return fmt.Errorf("%w: no sender", ErrInvalidMessage)
	case len(m.To) == 0:
		return fmt.Errorf("%w: no recipient", ErrInvalidMessage)
	case len(m.Attachment) == 0:
		return fmt.Errorf("%w: empty attachment", ErrInvalidMessage)
	case strings.TrimSpace(m.Filename) == "":
		return fmt.Errorf("%w: no attachment filename", ErrInvalidMessage)
	}
	_, _, err := m.addresses()
	return err
}

// addresses parses the sender and every recipient as a single RFC 5322 address.
func (m Message) addresses() (*mail.Address, []*mail.Address, error) {
	from, err := mail.ParseAddress(m.From)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: sender %q: %v", ErrInvalidMessage, m.From, err)
	}
	to := make([]*mail.Address, 0, len(m.To))
	for _, a := range m.To {
		addr, err := mail.ParseAddress(a)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: recipient %q: %v", ErrInvalidMessage, a, err)
		}
		to = append(to, addr)
	}
	return from, to, nil
}

// BuildRawMessage renders m as a multipart/mixed MIME document:
// a multipart/alternative part holding the text body, followed by
// the base64-encoded attachment.
func BuildRawMessage(m Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	from, to, err := m.addresses()
	if err != nil {
		return nil, err
	}
	rcpts := make([]string, len(to))
	for i, a := range to {
		rcpts[i] = a.String()
	}

	var buf bytes.Buffer
	mixed := multipart.NewWriter(&buf)

	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}

	fmt.Fprintf(&buf, "From: %s\r\n", from.String())
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(rcpts, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", date.Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: %s\r\n\r\n",
		mime.FormatMediaType("multipart/mixed", map[string]string{"boundary": mixed.Boundary()}))

	if err := writeAlternative(mixed, m.Body); err != nil {
		return nil, err
	}
	if err := writeAttachment(mixed, m.Filename, m.Attachment); err != nil {
		return nil, err
	}
	if err := mixed.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeAlternative(mixed *multipart.Writer, body string) error {
	var inner bytes.Buffer
	alt := multipart.NewWriter(&inner)

	text, err := alt.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {`text/plain; charset="utf-8"`},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return err
	}
	qp := quotedprintable.NewWriter(text)
	if _, err := io.WriteString(qp, body); err != nil {
		return err
	}
	if err := qp.Close(); err != nil {
		return err
	}
	if err := alt.Close(); err != nil {
		return err
	}

	part, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type": {mime.FormatMediaType("multipart/alternative", map[string]string{"boundary": alt.Boundary()})},
	})
	if err != nil {
		return err
	}
	_, err = part.Write(inner.Bytes())
	return err
}

func writeAttachment(mixed *multipart.Writer, filename string, data []byte) error {
	part, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {mime.FormatMediaType(contentType(filename), map[string]string{"name": filename})},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": filename})},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return err
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > base64LineLen {
		if _, err := io.WriteString(part, encoded[:base64LineLen]+"\r\n"); err != nil {
			return err
		}
		encoded = encoded[base64LineLen:]
	}
	_, err = io.WriteString(part, encoded+"\r\n")
	return err
}

func contentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if t, ok := attachmentTypes[ext]; ok {
		return t
	}
	return "application/octet-stream"
}
