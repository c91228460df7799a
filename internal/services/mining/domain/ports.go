package domain

import "context"

// RunnerPort is the public port of the mining module
type RunnerPort interface {
	Run(ctx context.Context) (Report, error)
}

// Cursor iterates messages in a stable order. Next returns io.EOF when done
type Cursor interface {
	Next(ctx context.Context) (Message, error)
	Close() error
}

// SkipCounter is optionally implemented by cursors that drop malformed records
type SkipCounter interface {
	Skipped() int
}

// SourcePort opens a cursor over the messages matching f
type SourcePort interface {
	Open(ctx context.Context, f Filter) (Cursor, error)
}

// DirectoryPort loads the internal identifier set once before a pass
type DirectoryPort interface {
	Load(ctx context.Context) (IdentifierSet, error)
}

// SinkPort persists the ranked suggestions of a finished pass
type SinkPort interface {
	Write(ctx context.Context, r Report) error
}
