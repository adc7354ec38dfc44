package host

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/emersion/go-smtp"
)

// Relay opens SMTPHandle values against a single fixed upstream SMTP
// server. It satisfies both ScriptEnv's SMTPOpen/SMTPClose function
// shapes and sieveengine.SMTPSender's method shape, so a host binary can
// wire the same value either way.
type Relay struct {
	Addr               string
	InsecureSkipVerify bool
}

func (r *Relay) SMTPOpen(ctx context.Context, dest, returnPath string) (SMTPHandle, error) {
	if r.Addr == "" {
		return nil, fmt.Errorf("no SMTP relay configured")
	}
	return &relaySender{relay: r.Addr, returnPath: returnPath, insecureSkipVerify: r.InsecureSkipVerify}, nil
}

func (r *Relay) SMTPClose(h SMTPHandle) error {
	return nil
}

// relaySender is a single outbound message handle: dial, send, hang up.
// The relay dials fresh per Send rather than pooling connections, the
// way vacation and redirect call SMTPOpen once per message anyway.
type relaySender struct {
	relay              string
	returnPath         string
	insecureSkipVerify bool
}

func (r *relaySender) Send(ctx context.Context, rcpt string, body []byte) error {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: r.insecureSkipVerify,
	}

	c, err := smtp.DialTLS(r.relay, tlsConfig)
	if err != nil {
		return fmt.Errorf("connecting to relay %s: %w", r.relay, err)
	}
	defer c.Close()

	if err := c.Mail(r.returnPath, nil); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := c.Rcpt(rcpt, nil); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}
	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("starting data: %w", err)
	}
	if _, err := wc.Write(body); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("closing data writer: %w", err)
	}
	return c.Quit()
}
