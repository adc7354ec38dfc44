package vacation

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-message"
	"github.com/google/uuid"

	"github.com/migadu/sieve/action"
	"github.com/migadu/sieve/registry"
)

// VacationCtx is the per-invocation payload captured in Entry.Ctx (RFC
// 5230 section 4).
type VacationCtx struct {
	Reason    string
	Subject   string
	From      string
	Addresses []string
	Mime      bool
	Handle    string
	Days      int64
}

// Vacation is RFC 5230's auto-reply action. Unlike Redirect, the reply
// recipient (the triggering message's envelope sender) is only known at
// Execute time, so Start does no resource setup; the open/send/close
// sequence runs entirely inside Execute.
type Vacation struct{}

func (Vacation) Name() string        { return "vacation" }
func (Vacation) SendsResponse() bool { return true }
func (Vacation) CancelsImplicitKeep() bool {
	return false
}

// CheckDuplicate enforces RFC 5230's "at most one vacation action per
// script evaluation" rule.
func (Vacation) CheckDuplicate(other registry.ActionDef, ctxA, ctxB any) bool {
	return other.Name() == "vacation"
}
func (Vacation) CheckConflict(other registry.ActionDef, ctxA, ctxB any) bool { return false }

func (Vacation) Print(ctx any) string {
	c, _ := ctx.(VacationCtx)
	return fmt.Sprintf("vacation %q", c.Subject)
}

func (Vacation) Start(host *registry.HostEnv, ctx any) (any, error) {
	if host == nil || host.SMTPOpen == nil {
		return nil, fmt.Errorf("host capability missing: vacation")
	}
	return nil, nil
}

func (Vacation) Execute(host *registry.HostEnv, msg *registry.HostMsg, state any, ctx any) error {
	c, _ := ctx.(VacationCtx)
	if msg == nil || msg.ReturnPath == "" {
		return nil // no envelope sender to reply to (e.g. a bounce)
	}
	if len(c.Addresses) > 0 && !addressed(c.Addresses, msg.ToAddress) {
		return nil
	}

	key := handleKey(c, msg.ReturnPath)
	if host.DuplicateCheck != nil {
		seen, err := host.DuplicateCheck(key, host.Username)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}

	body, err := replyBody(c, msg)
	if err != nil {
		return err
	}

	from := c.From
	if from == "" {
		from = host.PostmasterAddress
	}

	handle, err := host.SMTPOpen(msg.ReturnPath, from)
	if err != nil {
		return err
	}
	defer func() {
		if host.SMTPClose != nil {
			host.SMTPClose(handle)
		}
	}()

	type sender interface {
		Send(ctx context.Context, rcpt string, body []byte) error
	}
	s, ok := handle.(sender)
	if !ok {
		return fmt.Errorf("vacation: host SMTP handle does not implement Send")
	}
	if err := s.Send(context.Background(), msg.ReturnPath, body); err != nil {
		return err
	}

	if host.DuplicateMark != nil {
		days := c.Days
		if days <= 0 {
			days = 1
		}
		expire := time.Now().Add(time.Duration(days) * 24 * time.Hour).Unix()
		if err := host.DuplicateMark(key, host.Username, expire); err != nil {
			return err
		}
	}
	return nil
}

func (Vacation) Finish(state any, status error) error { return nil }

// handleKey derives the duplicate-suppression key from the script's
// :handle tag when present (RFC 5230 section 4.7: distinct vacation
// calls may share a suppression window via a common handle), falling
// back to the reply's subject.
func handleKey(c VacationCtx, recipient string) string {
	if c.Handle != "" {
		return "vacation:" + c.Handle + ":" + recipient
	}
	return "vacation:" + c.Subject + ":" + recipient
}

func addressed(allowed []string, to string) bool {
	for _, a := range allowed {
		if strings.EqualFold(a, to) {
			return true
		}
	}
	return false
}

// replyBody composes the RFC 5322 reply. When :mime is set, Reason is
// taken to already be a complete MIME body (RFC 5230 section 4.8) and is
// used verbatim; otherwise a plain-text part is built, quoting the
// original message's plaintext body when available.
func replyBody(c VacationCtx, msg *registry.HostMsg) ([]byte, error) {
	hdr := message.Header{}
	hdr.Set("Subject", c.Subject)
	hdr.Set("Date", time.Now().Format(time.RFC1123Z))
	hdr.Set("Message-Id", fmt.Sprintf("<%s@sieve>", uuid.NewString()))
	hdr.Set("Auto-Submitted", "auto-replied")
	if msg.MessageID != "" {
		hdr.Set("In-Reply-To", msg.MessageID)
		hdr.Set("References", msg.MessageID)
	}

	text := c.Reason
	if !c.Mime {
		hdr.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		if msg.GetPlaintextBody != nil {
			if quoted, err := msg.GetPlaintextBody(); err == nil && quoted != "" {
				text = text + "\n\n> " + strings.ReplaceAll(strings.TrimSpace(quoted), "\n", "\n> ")
			}
		}
	}

	entity, err := message.New(hdr, strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := entity.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ action.ActionDef = Vacation{}
