// Package logging builds the application logger.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// Name is the root logger name.
const Name = "lifeos"

// New returns a logger writing to w. debug lowers the level to Debug.
func New(w io.Writer, debug bool) hclog.Logger {
	level := hclog.Info
	if debug {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   Name,
		Level:  level,
		Output: w,
	})
}

// NewFile opens path for appending and returns a logger writing to it along
// with the closer for the file.
func NewFile(path string, debug bool) (hclog.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, err
	}
	return New(f, debug), f, nil
}

// Discard returns a logger that drops everything.
func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}

// OrDiscard returns l, or a null logger when l is nil.
func OrDiscard(l hclog.Logger) hclog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
