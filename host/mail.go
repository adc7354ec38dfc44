package host

import (
	"bytes"
	"io"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/k3a/html2text"

	"github.com/migadu/sieve/helpers"
)

// MIMEMail adapts a parsed *message.Entity into Mail.
type MIMEMail struct {
	entity *message.Entity
	size   uint64
	raw    []byte
}

// NewMIMEMail wraps msg; size is the RFC822.SIZE reported by the `size`
// test, raw is the original message bytes GetRaw returns verbatim.
func NewMIMEMail(msg *message.Entity, size uint64, raw []byte) *MIMEMail {
	return &MIMEMail{entity: msg, size: size, raw: raw}
}

// GetHeaders returns name's raw header values, sanitized to valid UTF-8
// so a header containing stray bytes degrades to "no match" in the match
// engine rather than aborting the run.
func (m *MIMEMail) GetHeaders(name string) ([]string, bool) {
	values := m.entity.Header.Values(name)
	if len(values) == 0 {
		return nil, false
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = helpers.SanitizeUTF8(v)
	}
	return out, true
}

func (m *MIMEMail) GetHeadersUTF8(name string) ([]string, bool) {
	raw, ok := m.GetHeaders(name)
	if !ok {
		return nil, false
	}
	dec := new(mail.AddressParser).WordDecoder
	out := make([]string, len(raw))
	for i, v := range raw {
		if d, err := dec.DecodeHeader(v); err == nil {
			out[i] = helpers.SanitizeUTF8(d)
		} else {
			out[i] = v
		}
	}
	return out, true
}

func (m *MIMEMail) GetFirstHeader(name string) (string, bool) {
	values, ok := m.GetHeaders(name)
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (m *MIMEMail) GetSize() uint64 {
	return m.size
}

func (m *MIMEMail) GetRaw() ([]byte, error) {
	if m.raw != nil {
		return m.raw, nil
	}
	var buf bytes.Buffer
	if err := m.entity.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PlaintextBody extracts the message's plaintext part, falling back to an
// HTML-to-text conversion, for the vacation extension's reply quoting.
func (m *MIMEMail) PlaintextBody() (string, error) {
	mr := mail.NewReader(m.entity)
	defer mr.Close()

	var plaintext, html string
	haveText, haveHTML := false, false
	for !haveText {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		} else if err != nil {
			return "", err
		}

		hdr, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		mediaType, _, err := hdr.ContentType()
		if err != nil || (mediaType != "text/plain" && mediaType != "text/html") {
			continue
		}
		b, err := io.ReadAll(part.Body)
		if err != nil {
			return "", err
		}
		switch mediaType {
		case "text/plain":
			if !haveText {
				plaintext, haveText = string(b), true
			}
		case "text/html":
			if !haveHTML {
				html, haveHTML = string(b), true
			}
		}
	}

	if !haveText && haveHTML {
		return html2text.HTML2Text(html), nil
	}
	return plaintext, nil
}
