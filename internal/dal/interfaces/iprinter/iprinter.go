package iprinter

import (
	"context"

	"github.com/Dongwon38/print-agent/internal/service/models/document"
)

// ISession is an exclusive connection to a receipt printer.
type ISession interface {
	// Open acquires the device
	Open(ctx context.Context) error

	// Write encodes a directive into the session buffer
	Write(d document.Directive) error

	// Flush sends buffered bytes to the device
	Flush(ctx context.Context) error

	// Close releases the device
	Close() error
}
