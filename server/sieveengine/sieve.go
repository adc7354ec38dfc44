// Package sieveengine is the LDA-facing adapter around the engine:
// a stable Executor/Result/Context surface that a mail delivery agent
// calls once per message, without needing to know about bytecode.Binary,
// registry.Table or the action.Engine commit protocol underneath.
package sieveengine

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/emersion/go-message"

	"github.com/migadu/sieve"
	"github.com/migadu/sieve/action"
	"github.com/migadu/sieve/bytecode"
	"github.com/migadu/sieve/ext/imap4flags"
	"github.com/migadu/sieve/ext/vacation"
	"github.com/migadu/sieve/host"
	"github.com/migadu/sieve/registry"
)

type Action string

const (
	ActionKeep     Action = "keep"
	ActionDiscard  Action = "discard"
	ActionFileInto Action = "fileinto"
	ActionRedirect Action = "redirect"
	ActionVacation Action = "vacation"
)

// Result summarizes the engine's committed action list for the one
// delivery-affecting action the LDA still has to perform itself:
// fileinto/keep/discard only validate host capability and record
// intent, the actual mailbox append is a host concern. Redirect and
// vacation, by contrast, are already fully executed by the time
// Evaluate returns: the engine sends them through ScriptEnv.SMTPOpen
// itself, so their fields here are informational.
type Result struct {
	Action         Action
	Mailbox        string            // used for fileinto
	RedirectTo     string            // used for redirect
	Flags          []string          // flags to add to the message
	VacationFrom   string            // used for vacation - from address
	VacationSubj   string            // used for vacation - subject
	VacationMsg    string            // used for vacation - message body
	VacationIsMime bool              // used for vacation - is MIME message
	Additional     map[string]string // future-proofing
}

type Context struct {
	EnvelopeFrom string
	EnvelopeTo   string
	Header       map[string][]string
	Body         string
}

// DuplicateStore backs the vacation extension's reply-suppression window
// (RFC 5230 section 4.7) and, when a script uses the duplicate extension
// directly, RFC 7352's fingerprint cache. Its shape matches db.Database's
// DuplicateCheck/DuplicateMark exactly, so a *db.Database satisfies it
// without an adapter.
type DuplicateStore interface {
	DuplicateCheck(ctx context.Context, accountID int64, hash string) (bool, error)
	DuplicateMark(ctx context.Context, accountID int64, hash string, expireAt time.Time) error
}

// SMTPSender opens and closes the outbound connection redirect/vacation
// submit a reply through (host.ScriptEnv.SMTPOpen/SMTPClose).
type SMTPSender interface {
	SMTPOpen(ctx context.Context, dest, returnPath string) (host.SMTPHandle, error)
	SMTPClose(h host.SMTPHandle) error
}

type Executor interface {
	Evaluate(evalCtx context.Context, ctx Context) (Result, error)
}

// SieveExecutor implements Executor by compiling the script once at
// construction time and running it against the engine on every Evaluate.
type SieveExecutor struct {
	table *registry.Table
	bin   *bytecode.Binary

	accountID  int64
	username   string
	hostname   string
	postmaster string
	dup        DuplicateStore
	smtp       SMTPSender
}

// NewSieveExecutor compiles scriptContent with no delivery capabilities
// wired in: fileinto/keep/discard/redirect still validate and record
// correctly, but redirect and vacation will report a host-capability-
// missing warning instead of sending anything. Suitable for syntax
// checking (PUTSCRIPT/SETACTIVE) or for scripts known not to use them.
func NewSieveExecutor(scriptContent string) (Executor, error) {
	table := sieve.DefaultTable()
	bin, err := sieve.CompileSource(table, []byte(scriptContent), host.LogErrorHandler{})
	if err != nil {
		return nil, err
	}
	return &SieveExecutor{table: table, bin: bin}, nil
}

// NewSieveExecutorWithOracle compiles scriptContent and wires the
// delivery-time capabilities a live mailbox needs: duplicate-suppression
// storage for vacation/duplicate, and an SMTP sender for redirect/
// vacation's reply. username/hostname/postmaster populate the
// corresponding host.ScriptEnv fields the engine reports in error
// messages and uses as the vacation reply's default From address.
func NewSieveExecutorWithOracle(scriptContent string, accountID int64, username, hostname, postmaster string, dup DuplicateStore, smtp SMTPSender) (Executor, error) {
	table := sieve.DefaultTable()
	bin, err := sieve.CompileSource(table, []byte(scriptContent), host.LogErrorHandler{})
	if err != nil {
		return nil, err
	}
	return &SieveExecutor{
		table:      table,
		bin:        bin,
		accountID:  accountID,
		username:   username,
		hostname:   hostname,
		postmaster: postmaster,
		dup:        dup,
		smtp:       smtp,
	}, nil
}

// Evaluate runs the compiled script against ctx and translates the
// engine's committed action list into a Result.
func (e *SieveExecutor) Evaluate(evalCtx context.Context, ctx Context) (Result, error) {
	mail, err := newContextMail(ctx)
	if err != nil {
		return Result{Action: ActionKeep}, fmt.Errorf("building message from context: %w", err)
	}

	msgData := &host.MessageData{
		Mail:       mail,
		ReturnPath: ctx.EnvelopeFrom,
		ToAddress:  ctx.EnvelopeTo,
		AuthUser:   e.username,
	}
	if msgID, ok := mail.GetFirstHeader("Message-Id"); ok {
		msgData.MessageID = msgID
	}

	env := e.scriptEnv()
	code, engine, err := sieve.Execute(e.table, e.bin, msgData, env, host.LogErrorHandler{}, nil, nil)
	if err != nil {
		return Result{Action: ActionKeep}, err
	}
	if code == sieve.ExitTempFailure {
		return Result{Action: ActionKeep}, fmt.Errorf("sieve script reported a temporary failure")
	}

	return resultFromEntries(engine.Entries()), nil
}

// scriptEnv adapts the executor's delivery capabilities into a
// host.ScriptEnv. DuplicateCheck/DuplicateMark close over accountID
// rather than parsing the engine's "user" string back into one, since
// e.dup (commonly *db.Database) is keyed by account ID, not by name.
func (e *SieveExecutor) scriptEnv() *host.ScriptEnv {
	env := &host.ScriptEnv{
		Inbox:             "INBOX",
		Username:          e.username,
		Hostname:          e.hostname,
		PostmasterAddress: e.postmaster,
	}
	if e.smtp != nil {
		env.SMTPOpen = func(c context.Context, dest, returnPath string) (host.SMTPHandle, error) {
			return e.smtp.SMTPOpen(c, dest, returnPath)
		}
		env.SMTPClose = e.smtp.SMTPClose
	}
	if e.dup != nil {
		env.DuplicateCheck = func(c context.Context, hash, user string) (bool, error) {
			return e.dup.DuplicateCheck(c, e.accountID, hash)
		}
		env.DuplicateMark = func(c context.Context, hash, user string, expire time.Time) error {
			return e.dup.DuplicateMark(c, e.accountID, hash, expire)
		}
	}
	return env
}

// resultFromEntries picks the single delivery-affecting action a host
// still has to perform. The engine's duplicate/conflict checking
// guarantees at most one of keep/fileinto/discard/redirect survives as
// the "primary" outcome; vacation may additionally appear alongside any
// of them since it does not cancel the implicit keep.
func resultFromEntries(entries []action.Entry) Result {
	result := Result{Action: ActionDiscard, Additional: make(map[string]string)}
	sawDelivery := false

	for _, ent := range entries {
		switch ent.Def.Name() {
		case "keep":
			result.Action = ActionKeep
			result.Flags = flagsOf(ent)
			sawDelivery = true
		case "fileinto":
			c, _ := ent.Ctx.(action.FileintoCtx)
			result.Action = ActionFileInto
			result.Mailbox = c.Mailbox
			result.Flags = flagsOf(ent)
			sawDelivery = true
		case "redirect":
			c, _ := ent.Ctx.(action.RedirectCtx)
			if !sawDelivery {
				result.Action = ActionRedirect
			}
			result.RedirectTo = c.Address
			sawDelivery = true
		case "discard":
			if !sawDelivery {
				result.Action = ActionDiscard
			}
		case "vacation":
			c, _ := ent.Ctx.(vacation.VacationCtx)
			result.VacationFrom = c.From
			result.VacationSubj = c.Subject
			result.VacationMsg = c.Reason
			result.VacationIsMime = c.Mime
			if !sawDelivery {
				result.Action = ActionVacation
			}
		}
	}
	return result
}

// flagsOf collects the imap4flags extension's side effects attached to a
// keep/fileinto entry (ext/core's execKeep/execFileinto pass them through
// untyped to avoid importing imap4flags; this is the one place that does
// the type assertion back, since the LDA needs the flag names as plain
// strings).
func flagsOf(ent action.Entry) []string {
	if len(ent.SideEffects) == 0 {
		return nil
	}
	flags := make([]string, 0, len(ent.SideEffects))
	for _, se := range ent.SideEffects {
		if f, ok := se.(imap4flags.Flag); ok {
			flags = append(flags, string(f))
		}
	}
	return flags
}

// contextMail adapts Context's flattened header map and body text into
// host.Mail by parsing a reconstructed RFC 5322 message, reusing
// host.MIMEMail for header decoding and plaintext extraction rather than
// duplicating that logic here.
type contextMail struct {
	*host.MIMEMail
}

func newContextMail(ctx Context) (*contextMail, error) {
	var buf bytes.Buffer
	for name, values := range ctx.Header {
		for _, v := range values {
			fmt.Fprintf(&buf, "%s: %s\r\n", name, v)
		}
	}
	buf.WriteString("\r\n")
	buf.WriteString(ctx.Body)

	raw := buf.Bytes()
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && message.IsUnknownCharset(err) {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return &contextMail{MIMEMail: host.NewMIMEMail(entity, uint64(len(raw)), raw)}, nil
}
