// Package host defines the interfaces the engine consumes from its host:
// the mail store, the delivery environment, and the error sink. None of
// these are implemented by the engine core itself — the mail-storage
// abstraction, the SMTP client, the duplicate store, and logging are all
// external collaborators. This package names the shapes; its mail.go,
// log.go and smtp.go hold the concrete adapters.
package host

import (
	"context"
	"time"
)

// Mail is the message-store handle MessageData.Mail exposes: the only
// interface the engine uses to read header and size data out of the
// message being filtered.
type Mail interface {
	// GetHeaders returns all values of a header, in wire order, or
	// ok=false if the header is absent.
	GetHeaders(name string) (values []string, ok bool)
	// GetHeadersUTF8 is like GetHeaders but returns RFC 2047-decoded
	// values, used by tests that must compare decoded text (e.g.
	// `header`).
	GetHeadersUTF8(name string) (values []string, ok bool)
	// GetFirstHeader is a convenience accessor over GetHeaders.
	GetFirstHeader(name string) (string, bool)
	// GetSize returns the RFC822.SIZE used by the `size` test.
	GetSize() uint64
	// GetRaw returns the full RFC 5322 message bytes, used by actions
	// that hand the message to another system (redirect's SMTP
	// submission).
	GetRaw() ([]byte, error)
}

// MessageData is the immutable-during-a-run input to Execute.
type MessageData struct {
	Mail       Mail
	ReturnPath string
	ToAddress  string
	AuthUser   string
	MessageID  string
}

// SMTPHandle is an open outbound SMTP connection, as returned by
// ScriptEnv.SMTPOpen (used by the vacation extension to send its reply).
type SMTPHandle interface {
	// Send transmits a single message to rcpt with the given body.
	Send(ctx context.Context, rcpt string, body []byte) error
}

// ScriptEnv is the host capability set. Every field is an interface and
// may be nil; a nil field is a capability gate, not an error —
// extensions that need it degrade to a warning through ErrorHandler
// (HostCapabilityMissing).
type ScriptEnv struct {
	Inbox             string
	Namespaces        []string
	Username          string
	Hostname          string
	PostmasterAddress string

	SMTPOpen  func(ctx context.Context, dest, returnPath string) (SMTPHandle, error)
	SMTPClose func(h SMTPHandle) error

	// DuplicateCheck/DuplicateMark back the `duplicate` test (RFC 7352).
	DuplicateCheck func(ctx context.Context, hash, user string) (bool, error)
	DuplicateMark  func(ctx context.Context, hash, user string, expire time.Time) error
}

// ErrorHandler is the sink for validator/generator/interpreter
// diagnostics.
type ErrorHandler interface {
	Warning(line int, msg string)
	Error(line int, msg string)
	Critical(msg string)
}
