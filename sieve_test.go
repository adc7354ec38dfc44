package sieve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migadu/sieve/bytecode"
	"github.com/migadu/sieve/host"
)

// fakeMail is a minimal host.Mail backed by an in-memory header map, used
// to drive Execute without parsing a real MIME message.
type fakeMail struct {
	headers map[string][]string
	size    uint64
	raw     []byte
}

func (m *fakeMail) GetHeaders(name string) ([]string, bool) {
	v, ok := m.headers[name]
	return v, ok
}
func (m *fakeMail) GetHeadersUTF8(name string) ([]string, bool) { return m.GetHeaders(name) }
func (m *fakeMail) GetFirstHeader(name string) (string, bool) {
	v, ok := m.headers[name]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}
func (m *fakeMail) GetSize() uint64         { return m.size }
func (m *fakeMail) GetRaw() ([]byte, error) { return m.raw, nil }

type discardHandler struct{}

func (discardHandler) Warning(line int, msg string) {}
func (discardHandler) Error(line int, msg string)   {}
func (discardHandler) Critical(msg string)          {}

func TestCompileAndExecuteFileinto(t *testing.T) {
	table := DefaultTable()
	src := []byte(`require "fileinto";
if header :contains "subject" "important" {
  fileinto "Important";
} else {
  keep;
}`)
	bin, err := CompileSource(table, src, discardHandler{})
	require.NoError(t, err)
	require.NotNil(t, bin)

	msg := &host.MessageData{
		Mail: &fakeMail{headers: map[string][]string{"subject": {"This is important"}}},
	}
	code, engine, err := Execute(table, bin, msg, &host.ScriptEnv{Inbox: "INBOX"}, discardHandler{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ExitOk, code)

	entries := engine.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "fileinto", entries[0].Def.Name())
}

func TestCompileAndExecuteImplicitKeep(t *testing.T) {
	table := DefaultTable()
	src := []byte(`if header :contains "subject" "important" {
  discard;
} else {
  keep;
}`)
	bin, err := CompileSource(table, src, discardHandler{})
	require.NoError(t, err)

	msg := &host.MessageData{
		Mail: &fakeMail{headers: map[string][]string{"subject": {"hello"}}},
	}
	code, engine, err := Execute(table, bin, msg, &host.ScriptEnv{Inbox: "INBOX"}, discardHandler{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ExitKeepOnly, code)
	require.Len(t, engine.Entries(), 1)
	assert.Equal(t, "keep", engine.Entries()[0].Def.Name())
}

func TestCompileAndExecuteDiscard(t *testing.T) {
	table := DefaultTable()
	src := []byte(`discard;`)
	bin, err := CompileSource(table, src, discardHandler{})
	require.NoError(t, err)

	msg := &host.MessageData{Mail: &fakeMail{headers: map[string][]string{}}}
	code, engine, err := Execute(table, bin, msg, &host.ScriptEnv{Inbox: "INBOX"}, discardHandler{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ExitOk, code)
	require.Len(t, engine.Entries(), 1)
	assert.Equal(t, "discard", engine.Entries()[0].Def.Name())
}

func TestCompileRejectsUndeclaredExtension(t *testing.T) {
	table := DefaultTable()
	src := []byte(`fileinto "Important";`)
	_, err := CompileSource(table, src, discardHandler{})
	assert.Error(t, err)
}

func TestCompileAndExecuteImap4flagsHasflag(t *testing.T) {
	table := DefaultTable()
	src := []byte(`require ["imap4flags", "fileinto"];
if header :contains "subject" "receipt" {
  addflag "\\Flagged";
  fileinto "Receipts";
} else {
  if hasflag "\\Flagged" {
    discard;
  } else {
    keep;
  }
}`)
	bin, err := CompileSource(table, src, discardHandler{})
	require.NoError(t, err)

	msg := &host.MessageData{
		Mail: &fakeMail{headers: map[string][]string{"subject": {"Your receipt"}}},
	}
	code, engine, err := Execute(table, bin, msg, &host.ScriptEnv{Inbox: "INBOX"}, discardHandler{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ExitOk, code)

	entries := engine.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "fileinto", entries[0].Def.Name())
	require.Len(t, entries[0].SideEffects, 1)
}

func TestCompileAndExecuteDuplicateSuppression(t *testing.T) {
	table := DefaultTable()
	src := []byte(`require "duplicate";
if duplicate {
  discard;
} else {
  keep;
}`)
	bin, err := CompileSource(table, src, discardHandler{})
	require.NoError(t, err)

	marks := make(map[string]bool)
	env := &host.ScriptEnv{
		Inbox: "INBOX",
		DuplicateCheck: func(ctx context.Context, hash, user string) (bool, error) {
			return marks[hash], nil
		},
		DuplicateMark: func(ctx context.Context, hash, user string, expire time.Time) error {
			marks[hash] = true
			return nil
		},
	}

	msg := &host.MessageData{Mail: &fakeMail{headers: map[string][]string{}}, MessageID: "<abc@example.com>"}

	code, engine, err := Execute(table, bin, msg, env, discardHandler{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ExitKeepOnly, code)
	require.Len(t, engine.Entries(), 1)
	assert.Equal(t, "keep", engine.Entries()[0].Def.Name())

	code, engine, err = Execute(table, bin, msg, env, discardHandler{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ExitOk, code)
	require.Len(t, engine.Entries(), 1)
	assert.Equal(t, "discard", engine.Entries()[0].Def.Name())
}

func TestSaveRoundTripsThroughDecode(t *testing.T) {
	table := DefaultTable()
	src := []byte(`require "fileinto";
fileinto "Archive";`)
	bin, err := CompileSource(table, src, discardHandler{})
	require.NoError(t, err)

	data := Save(bin)
	reloaded, err := bytecode.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, bin.ExtIndex, reloaded.ExtIndex)
}
