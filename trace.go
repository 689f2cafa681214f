package kilt

import (
	"fmt"
	"os"
)

// debugTrace enables decode and probe tracing via the KILT_DEBUG env var.
// Diagnostics go to stderr; stdout belongs to the terminal frames.
var debugTrace = os.Getenv("KILT_DEBUG") != ""

func tracef(format string, args ...any) {
	if debugTrace {
		// CRLF because the terminal is in raw mode with OPOST disabled.
		fmt.Fprintf(os.Stderr, "kilt: "+format+"\r\n", args...)
	}
}
