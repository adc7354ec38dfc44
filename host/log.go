package host

import (
	"log"
	"time"
)

// LogErrorHandler is the default ErrorHandler: timestamped log.Printf
// lines tagged with a script name, matching server.Session.Log's
// "no logging library, just log.Printf with context fields" idiom.
type LogErrorHandler struct {
	Script string
}

func (h LogErrorHandler) logf(level, format string, args ...interface{}) {
	now := time.Now().Format("2006-01-02 15:04:05")
	log.Printf("%s sieve script=%s %s: "+format, append([]interface{}{now, h.Script, level}, args...)...)
}

func (h LogErrorHandler) Warning(line int, msg string) {
	h.logf("WARNING", "line %d: %s", line, msg)
}

func (h LogErrorHandler) Error(line int, msg string) {
	h.logf("ERROR", "line %d: %s", line, msg)
}

func (h LogErrorHandler) Critical(msg string) {
	h.logf("CRITICAL", "%s", msg)
}
