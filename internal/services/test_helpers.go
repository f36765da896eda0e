package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/storage"
	"salespulse/pkg/contracts/domain"
)

// MockTransactionStore is a mock for TransactionStore
type MockTransactionStore struct {
	mock.Mock
}

func (m *MockTransactionStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockTransactionStore) FileExists(ctx context.Context, hash string) (bool, error) {
	args := m.Called(ctx, hash)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionStore) SaveFile(ctx context.Context, f *domain.SourceFile) error {
	args := m.Called(ctx, f)
	if args.Error(0) == nil && f.ID == "" {
		f.ID = "file-" + f.FileHash[:8]
	}
	return args.Error(0)
}

func (m *MockTransactionStore) InsertTransactions(ctx context.Context, fileID string, txs []domain.Transaction) (int, error) {
	args := m.Called(ctx, fileID, txs)
	return args.Int(0), args.Error(1)
}

func (m *MockTransactionStore) ListTransactions(ctx context.Context, f storage.Filter) ([]domain.Transaction, error) {
	args := m.Called(ctx, f)
	txs, _ := args.Get(0).([]domain.Transaction)
	return txs, args.Error(1)
}

func (m *MockTransactionStore) CountTransactions(ctx context.Context, f storage.Filter) (int, error) {
	args := m.Called(ctx, f)
	return args.Int(0), args.Error(1)
}

func (m *MockTransactionStore) ListFiles(ctx context.Context) ([]domain.SourceFile, error) {
	args := m.Called(ctx)
	files, _ := args.Get(0).([]domain.SourceFile)
	return files, args.Error(1)
}

func (m *MockTransactionStore) Stats(ctx context.Context) (storage.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(storage.Stats), args.Error(1)
}

func (m *MockTransactionStore) Clear(ctx context.Context) (storage.ClearResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(storage.ClearResult), args.Error(1)
}

// MockFileStore is a mock for FileStore
type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Save(hash, name string, data []byte) (string, error) {
	args := m.Called(hash, name, data)
	return args.String(0), args.Error(1)
}

func (m *MockFileStore) DeleteAll(paths []string) (int, error) {
	args := m.Called(paths)
	return args.Int(0), args.Error(1)
}

// MockIngester is a mock for Ingester
type MockIngester struct {
	mock.Mock
}

func (m *MockIngester) Process(ctx context.Context, filename string, data []byte) *dataprocessing.Result {
	return m.Called(ctx, filename, data).Get(0).(*dataprocessing.Result)
}

// MockNotifier is a mock for Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Broadcast(ctx context.Context, eventType string, data any) {
	m.Called(ctx, eventType, data)
}

// MockReportGenerator is a mock for ReportGenerator
type MockReportGenerator struct {
	mock.Mock
}

func (m *MockReportGenerator) PDF(ctx context.Context, d domain.Dashboard) ([]byte, error) {
	args := m.Called(ctx, d)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}
