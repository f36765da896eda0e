package services

import (
	"context"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/storage"
	"salespulse/pkg/contracts/domain"
)

// TransactionStore is the persistence the services depend on.
type TransactionStore interface {
	Ping(ctx context.Context) error
	FileExists(ctx context.Context, hash string) (bool, error)
	SaveFile(ctx context.Context, f *domain.SourceFile) error
	InsertTransactions(ctx context.Context, fileID string, txs []domain.Transaction) (int, error)
	ListTransactions(ctx context.Context, f storage.Filter) ([]domain.Transaction, error)
	CountTransactions(ctx context.Context, f storage.Filter) (int, error)
	ListFiles(ctx context.Context) ([]domain.SourceFile, error)
	Stats(ctx context.Context) (storage.Stats, error)
	Clear(ctx context.Context) (storage.ClearResult, error)
}

// FileStore keeps raw upload bytes.
type FileStore interface {
	Save(hash, name string, data []byte) (string, error)
	DeleteAll(paths []string) (int, error)
}

// Ingester turns one file into canonical transactions.
type Ingester interface {
	Process(ctx context.Context, filename string, data []byte) *dataprocessing.Result
}

// Notifier pushes events to connected dashboards.
type Notifier interface {
	Broadcast(ctx context.Context, eventType string, data any)
}

// Invalidator drops cached analytics after the data changed.
type Invalidator interface {
	Invalidate()
}

// UploadedFile is one file received from a client. ReadErr is set when
// the transport could not read the file; Data is then empty and the file
// is reported as an error without being processed.
type UploadedFile struct {
	Name    string
	Data    []byte
	ReadErr error
}
