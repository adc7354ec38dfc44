package server

import (
	"fmt"
	"io"
	"log"

	"github.com/emersion/go-message"
)

// ParseMessage reads and parses an email message from r, ready to be
// wrapped into a host.Mail for the engine's MessageData.
func ParseMessage(r io.Reader) (*message.Entity, error) {
	m, err := message.Read(r)
	if message.IsUnknownCharset(err) {
		log.Println("unknown encoding:", err)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read message: %v", err)
	}
	return m, nil
}
