// Package logging provides component-prefixed loggers shared across geovcs.
//
// Following the teacher's approach, this wraps the standard library's
// log package rather than introducing a structured logging framework:
// every component gets its own *log.Logger with a bracketed prefix so
// output can be told apart without adding a dependency the rest of the
// stack doesn't carry.
package logging

import (
	"log"
	"os"
)

// New returns a logger that prefixes every line with "[component] ".
func New(component string) *log.Logger {
	return log.New(os.Stderr, "["+component+"] ", log.LstdFlags)
}
