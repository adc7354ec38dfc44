package action

import (
	"context"
	"fmt"

	"github.com/migadu/sieve/registry"
)

// FileintoCtx/RedirectCtx are the per-invocation payloads captured in
// Entry.Ctx for the core delivery actions (RFC 5228 sections 4.1-4.3,
// 4.5); keep and discard carry no payload.
type FileintoCtx struct {
	Mailbox string
	Copy    bool
	Flags   []string
}

type RedirectCtx struct {
	Address string
	Copy    bool
}

// Keep is RFC 5228's implicit-and-explicit "keep" action: deliver the
// message to the default mailbox.
type Keep struct{}

func (Keep) Name() string          { return "keep" }
func (Keep) SendsResponse() bool   { return false }
func (Keep) CancelsImplicitKeep() bool { return false }
func (Keep) CheckDuplicate(other registry.ActionDef, ctxA, ctxB any) bool {
	return other.Name() == "keep"
}
func (Keep) CheckConflict(other registry.ActionDef, ctxA, ctxB any) bool { return false }
func (Keep) Print(ctx any) string                                       { return "keep" }
func (Keep) Start(host *registry.HostEnv, ctx any) (any, error)          { return nil, nil }
func (Keep) Execute(host *registry.HostEnv, msg *registry.HostMsg, state any, ctx any) error {
	if host == nil {
		return fmt.Errorf("host capability missing: keep")
	}
	return nil
}
func (Keep) Finish(state any, status error) error { return nil }

// Fileinto is RFC 5228 section 4.1, generalized with the :copy tag
// (RFC 3894) and the imap4flags extension's per-action flag set
// (RFC 5232).
type Fileinto struct{}

func (Fileinto) Name() string        { return "fileinto" }
func (Fileinto) SendsResponse() bool { return false }
func (Fileinto) CancelsImplicitKeep() bool {
	return true
}
func (Fileinto) CheckDuplicate(other registry.ActionDef, ctxA, ctxB any) bool {
	if other.Name() != "fileinto" {
		return false
	}
	a, _ := ctxA.(FileintoCtx)
	b, _ := ctxB.(FileintoCtx)
	return a.Mailbox == b.Mailbox
}
func (Fileinto) CheckConflict(other registry.ActionDef, ctxA, ctxB any) bool { return false }
func (Fileinto) Print(ctx any) string {
	c, _ := ctx.(FileintoCtx)
	return fmt.Sprintf("fileinto %q", c.Mailbox)
}
func (Fileinto) Start(host *registry.HostEnv, ctx any) (any, error) { return nil, nil }
func (Fileinto) Execute(host *registry.HostEnv, msg *registry.HostMsg, state any, ctx any) error {
	if host == nil {
		return fmt.Errorf("host capability missing: fileinto")
	}
	return nil
}
func (Fileinto) Finish(state any, status error) error { return nil }

// Redirect is RFC 5228 section 4.2, generalized with the :copy tag
// (RFC 3894).
type Redirect struct{}

func (Redirect) Name() string        { return "redirect" }
func (Redirect) SendsResponse() bool { return true }
func (Redirect) CancelsImplicitKeep() bool {
	return true
}
func (Redirect) CheckDuplicate(other registry.ActionDef, ctxA, ctxB any) bool {
	if other.Name() != "redirect" {
		return false
	}
	a, _ := ctxA.(RedirectCtx)
	b, _ := ctxB.(RedirectCtx)
	return a.Address == b.Address
}
func (Redirect) CheckConflict(other registry.ActionDef, ctxA, ctxB any) bool { return false }
func (Redirect) Print(ctx any) string {
	c, _ := ctx.(RedirectCtx)
	return fmt.Sprintf("redirect %q", c.Address)
}
// redirectState pairs the SMTP handle host.SMTPOpen returned with the
// host it came from, so Finish can hand the same handle back to
// host.SMTPClose without Start/Finish needing a shared host field.
type redirectState struct {
	host   *registry.HostEnv
	handle any
}

func (Redirect) Start(host *registry.HostEnv, ctx any) (any, error) {
	if host == nil || host.SMTPOpen == nil {
		return nil, fmt.Errorf("host capability missing: redirect")
	}
	c, _ := ctx.(RedirectCtx)
	handle, err := host.SMTPOpen(c.Address, host.PostmasterAddress)
	if err != nil {
		return nil, err
	}
	return redirectState{host: host, handle: handle}, nil
}
func (Redirect) Execute(host *registry.HostEnv, msg *registry.HostMsg, state any, ctx any) error {
	if msg == nil || msg.GetRaw == nil {
		return fmt.Errorf("host capability missing: redirect body")
	}
	body, err := msg.GetRaw()
	if err != nil {
		return err
	}
	c, _ := ctx.(RedirectCtx)
	st, _ := state.(redirectState)
	return sendVia(context.Background(), st.handle, c.Address, body)
}
func (Redirect) Finish(state any, status error) error {
	st, ok := state.(redirectState)
	if !ok || st.host == nil || st.host.SMTPClose == nil {
		return nil
	}
	return st.host.SMTPClose(st.handle)
}

// sendVia adapts the opaque handle returned by host.SMTPOpen (typed `any`
// in registry.HostEnv to avoid importing host here) back to its Send
// method via a narrow local interface.
func sendVia(ctx context.Context, handle any, rcpt string, body []byte) error {
	type sender interface {
		Send(ctx context.Context, rcpt string, body []byte) error
	}
	s, ok := handle.(sender)
	if !ok {
		return fmt.Errorf("redirect: host SMTP handle does not implement Send")
	}
	return s.Send(ctx, rcpt, body)
}

// Discard is RFC 5228 section 4.5: cancel the implicit keep without
// filing the message anywhere.
type Discard struct{}

func (Discard) Name() string        { return "discard" }
func (Discard) SendsResponse() bool { return false }
func (Discard) CancelsImplicitKeep() bool {
	return true
}
func (Discard) CheckDuplicate(other registry.ActionDef, ctxA, ctxB any) bool {
	return other.Name() == "discard"
}
func (Discard) CheckConflict(other registry.ActionDef, ctxA, ctxB any) bool { return false }
func (Discard) Print(ctx any) string                                       { return "discard" }
func (Discard) Start(host *registry.HostEnv, ctx any) (any, error)         { return nil, nil }
func (Discard) Execute(host *registry.HostEnv, msg *registry.HostMsg, state any, ctx any) error {
	return nil
}
func (Discard) Finish(state any, status error) error { return nil }
