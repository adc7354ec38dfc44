package core

import (
	"fmt"
	"net/mail"

	"github.com/migadu/sieve/action"
	"github.com/migadu/sieve/match"
	"github.com/migadu/sieve/registry"
	"github.com/migadu/sieve/sieveerr"
)

// Core opcode local codes. These are stable across binaries: core never
// renumbers an existing opcode, only appends new ones.
const (
	opJMP byte = iota + 1
	opJMPTRUE
	opJMPFALSE
	opNOT
	opTRUE
	opFALSE
	opEXISTS
	opSIZEOVER
	opSIZEUNDER
	opHEADER
	opADDRESS
	opENVELOPE
	opKEEP
	opDISCARD
	opFILEINTO
	opREDIRECT
	opSTOP
)

var comparators = match.Comparators()
var matchTypes = match.MatchTypes()
var addressParts = match.AddressParts()

var operations = []registry.Operation{
	{Mnemonic: "JMP", LocalCode: opJMP, Exec: execJMP},
	{Mnemonic: "JMPTRUE", LocalCode: opJMPTRUE, Exec: execJMPTRUE},
	{Mnemonic: "JMPFALSE", LocalCode: opJMPFALSE, Exec: execJMPFALSE},
	{Mnemonic: "NOT", LocalCode: opNOT, Exec: execNOT},
	{Mnemonic: "TRUE", LocalCode: opTRUE, Exec: execTRUE},
	{Mnemonic: "FALSE", LocalCode: opFALSE, Exec: execFALSE},
	{Mnemonic: "EXISTS", LocalCode: opEXISTS, Exec: execEXISTS},
	{Mnemonic: "SIZE_OVER", LocalCode: opSIZEOVER, Exec: execSizeOver},
	{Mnemonic: "SIZE_UNDER", LocalCode: opSIZEUNDER, Exec: execSizeUnder},
	{Mnemonic: "HEADER", LocalCode: opHEADER, Exec: execHeader},
	{Mnemonic: "ADDRESS", LocalCode: opADDRESS, Exec: execAddress},
	{Mnemonic: "ENVELOPE", LocalCode: opENVELOPE, Exec: execEnvelope},
	{Mnemonic: "KEEP", LocalCode: opKEEP, Exec: execKeep},
	{Mnemonic: "DISCARD", LocalCode: opDISCARD, Exec: execDiscard},
	{Mnemonic: "FILEINTO", LocalCode: opFILEINTO, Exec: execFileinto},
	{Mnemonic: "REDIRECT", LocalCode: opREDIRECT, Exec: execRedirect},
	{Mnemonic: "STOP", LocalCode: opSTOP, Exec: execStop},
}

func execJMP(rt registry.RuntimeEnv) (registry.Signal, error) {
	off, err := rt.ReadJumpSlot()
	if err != nil {
		return 0, err
	}
	rt.Jump(int64(off))
	return registry.SigNext, nil
}

func execJMPTRUE(rt registry.RuntimeEnv) (registry.Signal, error) {
	off, err := rt.ReadJumpSlot()
	if err != nil {
		return 0, err
	}
	if rt.TestRegister() {
		rt.Jump(int64(off))
	}
	return registry.SigNext, nil
}

func execJMPFALSE(rt registry.RuntimeEnv) (registry.Signal, error) {
	off, err := rt.ReadJumpSlot()
	if err != nil {
		return 0, err
	}
	if !rt.TestRegister() {
		rt.Jump(int64(off))
	}
	return registry.SigNext, nil
}

func execNOT(rt registry.RuntimeEnv) (registry.Signal, error) {
	rt.SetTestRegister(!rt.TestRegister())
	return registry.SigNext, nil
}

func execTRUE(rt registry.RuntimeEnv) (registry.Signal, error) {
	rt.SetTestRegister(true)
	return registry.SigNext, nil
}

func execFALSE(rt registry.RuntimeEnv) (registry.Signal, error) {
	rt.SetTestRegister(false)
	return registry.SigNext, nil
}

func execEXISTS(rt registry.RuntimeEnv) (registry.Signal, error) {
	names, err := rt.ReadStringList()
	if err != nil {
		return 0, err
	}
	all := true
	for _, name := range names {
		if _, ok := rt.Msg().GetFirstHeader(name); !ok {
			all = false
			break
		}
	}
	rt.SetTestRegister(all)
	return registry.SigNext, nil
}

func execSizeOver(rt registry.RuntimeEnv) (registry.Signal, error) {
	n, err := rt.ReadPackedUint()
	if err != nil {
		return 0, err
	}
	rt.SetTestRegister(rt.Msg().GetSize() > n)
	return registry.SigNext, nil
}

func execSizeUnder(rt registry.RuntimeEnv) (registry.Signal, error) {
	n, err := rt.ReadPackedUint()
	if err != nil {
		return 0, err
	}
	rt.SetTestRegister(rt.Msg().GetSize() < n)
	return registry.SigNext, nil
}

// selection reads the shared comparator/match-type optional-operand
// block header/address/envelope all emit, falling back to the RFC 5228
// defaults when a tag was never supplied at validate time.
type selection struct {
	cmp         match.Comparator
	mt          match.MatchType
	addressPart match.AddressPart
}

func readSelection(rt registry.RuntimeEnv, withAddressPart bool) (selection, error) {
	sel := selection{cmp: comparators[match.DefaultComparator], mt: matchTypes[match.DefaultMatchType]}
	if withAddressPart {
		sel.addressPart = addressParts[match.DefaultAddressPart]
	}
	for {
		code, ok, err := rt.ReadOptBlock()
		if err != nil {
			return sel, err
		}
		if !ok {
			return sel, nil
		}
		switch {
		case code == optComparator:
			name, err := rt.ReadString()
			if err != nil {
				return sel, err
			}
			if c, ok := comparators[name]; ok {
				sel.cmp = c
			}
		case code >= optMatchBase && code < optMatchBase+optMatchCount:
			obj, err := rt.ReadObject()
			if err != nil {
				return sel, err
			}
			if mt, ok := obj.Payload.(match.MatchType); ok {
				sel.mt = mt
			}
		case withAddressPart && code >= optAddrPartBase && code < optAddrPartBase+optAddrPartCount:
			obj, err := rt.ReadObject()
			if err != nil {
				return sel, err
			}
			if ap, ok := obj.Payload.(match.AddressPart); ok {
				sel.addressPart = ap
			}
		default:
			return sel, fmt.Errorf("%w: unknown optional-operand code %d", sieveerr.ErrBinaryCorrupt, code)
		}
	}
}

func runMatch(ctx match.Context, values []string) bool {
	matched := false
	for _, v := range values {
		if ctx.Match(v) {
			matched = true
		}
	}
	if !matched {
		matched = ctx.Finalize()
	}
	return matched
}

func execHeader(rt registry.RuntimeEnv) (registry.Signal, error) {
	sel, err := readSelection(rt, false)
	if err != nil {
		return 0, err
	}
	names, err := rt.ReadStringList()
	if err != nil {
		return 0, err
	}
	keys, err := rt.ReadStringList()
	if err != nil {
		return 0, err
	}
	ctx := sel.mt.Init(sel.cmp, keys)
	var values []string
	for _, name := range names {
		vs, ok := rt.Msg().GetHeadersUTF8(name)
		if ok {
			values = append(values, vs...)
		}
	}
	rt.SetTestRegister(runMatch(ctx, values))
	return registry.SigNext, nil
}

func execAddress(rt registry.RuntimeEnv) (registry.Signal, error) {
	sel, err := readSelection(rt, true)
	if err != nil {
		return 0, err
	}
	names, err := rt.ReadStringList()
	if err != nil {
		return 0, err
	}
	keys, err := rt.ReadStringList()
	if err != nil {
		return 0, err
	}
	ctx := sel.mt.Init(sel.cmp, keys)
	var parts []string
	for _, name := range names {
		vs, ok := rt.Msg().GetHeaders(name)
		if !ok {
			continue
		}
		for _, v := range vs {
			for _, addr := range parseAddressList(v) {
				parts = append(parts, sel.addressPart.Extract(addr))
			}
		}
	}
	rt.SetTestRegister(runMatch(ctx, parts))
	return registry.SigNext, nil
}

func execEnvelope(rt registry.RuntimeEnv) (registry.Signal, error) {
	sel, err := readSelection(rt, true)
	if err != nil {
		return 0, err
	}
	names, err := rt.ReadStringList()
	if err != nil {
		return 0, err
	}
	keys, err := rt.ReadStringList()
	if err != nil {
		return 0, err
	}
	ctx := sel.mt.Init(sel.cmp, keys)
	var parts []string
	for _, name := range names {
		addr, ok := envelopeField(rt.Msg(), name)
		if !ok {
			continue
		}
		parts = append(parts, sel.addressPart.Extract(addr))
	}
	rt.SetTestRegister(runMatch(ctx, parts))
	return registry.SigNext, nil
}

func envelopeField(msg *registry.HostMsg, name string) (string, bool) {
	switch name {
	case "from":
		return msg.ReturnPath, msg.ReturnPath != ""
	case "to":
		return msg.ToAddress, msg.ToAddress != ""
	case "auth":
		return msg.AuthUser, msg.AuthUser != ""
	default:
		return "", false
	}
}

// parseAddressList splits a header value into its constituent addresses,
// tolerating malformed input by falling back to treating it as a single
// address — the `address` test must not panic on malformed headers.
func parseAddressList(value string) []string {
	addrs, err := mail.ParseAddressList(value)
	if err != nil {
		return []string{value}
	}
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.Address
	}
	return out
}

// currentFlags reads the imap4flags extension's "current flags" runtime
// state, if that extension is present in this binary (RFC 5232's
// setflag/addflag/removeflag mutate this before a keep/fileinto reads
// it). Duck-typed against registry.SideEffect so core need not import
// ext/imap4flags.
func currentFlags(rt registry.RuntimeEnv) []registry.SideEffect {
	v := rt.ExtState("imap4flags")
	se, _ := v.([]registry.SideEffect)
	return se
}

func execKeep(rt registry.RuntimeEnv) (registry.Signal, error) {
	err := rt.Actions().AddAction(action.Keep{}, currentFlags(rt), rt.SourceLine(), nil)
	if err != nil {
		return 0, err
	}
	return registry.SigNext, nil
}

func execDiscard(rt registry.RuntimeEnv) (registry.Signal, error) {
	if err := rt.Actions().AddAction(action.Discard{}, nil, rt.SourceLine(), nil); err != nil {
		return 0, err
	}
	return registry.SigNext, nil
}

func execFileinto(rt registry.RuntimeEnv) (registry.Signal, error) {
	copy := false
	for {
		code, ok, err := rt.ReadOptBlock()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		if code == optCopy {
			copy = true
		}
	}
	mailbox, err := rt.ReadString()
	if err != nil {
		return 0, err
	}
	ctx := action.FileintoCtx{Mailbox: mailbox, Copy: copy}
	if err := rt.Actions().AddAction(action.Fileinto{}, currentFlags(rt), rt.SourceLine(), ctx); err != nil {
		return 0, err
	}
	return registry.SigNext, nil
}

func execRedirect(rt registry.RuntimeEnv) (registry.Signal, error) {
	copyFlag := false
	for {
		code, ok, err := rt.ReadOptBlock()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		if code == optCopy {
			copyFlag = true
		}
	}
	addr, err := rt.ReadString()
	if err != nil {
		return 0, err
	}
	ctx := action.RedirectCtx{Address: addr, Copy: copyFlag}
	if err := rt.Actions().AddAction(action.Redirect{}, nil, rt.SourceLine(), ctx); err != nil {
		return 0, err
	}
	return registry.SigNext, nil
}

func execStop(rt registry.RuntimeEnv) (registry.Signal, error) {
	return registry.SigStop, nil
}
