package sieve

import (
	"context"
	"time"

	"github.com/migadu/sieve/action"
	"github.com/migadu/sieve/bytecode"
	"github.com/migadu/sieve/host"
	"github.com/migadu/sieve/interp"
	"github.com/migadu/sieve/registry"
)

// Execute interprets bin against msg under env. It runs the interpreter
// to completion, then commits the accumulated action list, and returns
// the final action.Engine so the host's LDA can read Entries() and
// perform the actual delivery/redirect/reply side effects the engine's
// action contract describes but does not itself own (mailbox append and
// default delivery are host concerns, not engine ones — the engine's
// Keep/Fileinto/Discard actions only validate host capability and
// record intent).
//
// msgState carries per-message context shared across a chain of scripts
// run against the same message; pass nil for a single-script run.
// cancelled, if non-nil, is polled between opcodes so a host can abort a
// long-running script.
func Execute(table *registry.Table, bin *bytecode.Binary, msg *host.MessageData, env *host.ScriptEnv, ehandler host.ErrorHandler, msgState map[string]any, cancelled func() bool) (ExitCode, *action.Engine, error) {
	hostEnv := adaptScriptEnv(env)
	hostMsg := adaptMessageData(msg)

	engine := action.NewEngine(action.Keep{})
	m, err := interp.New(table, bin, hostEnv, hostMsg, engine, ehandler, msgState, cancelled)
	if err != nil {
		return ExitErr, engine, err
	}

	code, err := m.Run()
	if err != nil {
		return ExitCode(code), engine, err
	}
	if code != interp.ExitOk {
		return ExitCode(code), engine, nil
	}

	if err := engine.Commit(hostEnv, hostMsg); err != nil {
		return ExitErr, engine, err
	}
	if keepOnly(engine) {
		return ExitKeepOnly, engine, nil
	}
	return ExitOk, engine, nil
}

// keepOnly reports whether engine's final action list is exactly the
// implicit/explicit keep and nothing else — the common case a host's
// LDA fast-paths straight to default delivery.
func keepOnly(engine *action.Engine) bool {
	entries := engine.Entries()
	return len(entries) == 1 && entries[0].Def.Name() == "keep"
}

// adaptScriptEnv bridges host.ScriptEnv (the context-aware, time.Time-
// based shape a host process implements) to registry.HostEnv (the
// context-free, unix-timestamp shape the interpreter/action layer use
// internally, since a Sieve run is synchronous end to end and carries no
// cancellable sub-operations of its own beyond the interpreter's own
// poll loop).
func adaptScriptEnv(env *host.ScriptEnv) *registry.HostEnv {
	if env == nil {
		return nil
	}
	h := &registry.HostEnv{
		Inbox:             env.Inbox,
		Namespaces:        env.Namespaces,
		Username:          env.Username,
		Hostname:          env.Hostname,
		PostmasterAddress: env.PostmasterAddress,
	}
	if env.SMTPOpen != nil {
		h.SMTPOpen = func(dest, returnPath string) (any, error) {
			return env.SMTPOpen(context.Background(), dest, returnPath)
		}
	}
	if env.SMTPClose != nil {
		h.SMTPClose = func(handle any) error {
			sh, ok := handle.(host.SMTPHandle)
			if !ok {
				return nil
			}
			return env.SMTPClose(sh)
		}
	}
	if env.DuplicateCheck != nil {
		h.DuplicateCheck = func(hash, user string) (bool, error) {
			return env.DuplicateCheck(context.Background(), hash, user)
		}
	}
	if env.DuplicateMark != nil {
		h.DuplicateMark = func(hash, user string, expireUnix int64) error {
			return env.DuplicateMark(context.Background(), hash, user, time.Unix(expireUnix, 0))
		}
	}
	return h
}

// adaptMessageData bridges host.MessageData's host.Mail interface to the
// plain function-field shape registry.HostMsg exposes to Operation.Exec,
// so ext/core's opcodes never import package host directly.
func adaptMessageData(msg *host.MessageData) *registry.HostMsg {
	if msg == nil {
		return nil
	}
	hm := &registry.HostMsg{
		ReturnPath: msg.ReturnPath,
		ToAddress:  msg.ToAddress,
		AuthUser:   msg.AuthUser,
		MessageID:  msg.MessageID,
	}
	if msg.Mail != nil {
		hm.GetHeaders = msg.Mail.GetHeaders
		hm.GetHeadersUTF8 = msg.Mail.GetHeadersUTF8
		hm.GetFirstHeader = msg.Mail.GetFirstHeader
		hm.GetSize = msg.Mail.GetSize
		hm.GetRaw = msg.Mail.GetRaw
		if pt, ok := msg.Mail.(interface{ PlaintextBody() (string, error) }); ok {
			hm.GetPlaintextBody = pt.PlaintextBody
		}
	}
	return hm
}
