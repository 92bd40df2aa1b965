package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/registros/internal/workbook"
)

var (
	// ErrRecordNotFound is returned when no record has the requested id.
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidRecord is returned when a record body is not a JSON object.
	ErrInvalidRecord = errors.New("invalid record: body must be a JSON object")
)

// Storage loads and saves the whole dataset. *workbook.Store implements it.
type Storage interface {
	Load() (*workbook.Dataset, error)
	Save(ds *workbook.Dataset) error
}

// Options configures a Service.
type Options struct {
	// UploadDir receives uploaded files while they are parsed.
	UploadDir string

	MaxConcurrentUploads int
	MaxUploadWait        time.Duration
}

// Service owns the record dataset. Every operation loads the full dataset
// from storage, applies one change, and saves the full dataset back.
//
// Operations are serialized by a single lock so two requests in this process
// cannot interleave their read-modify-write cycles. Nothing guards against
// another process editing the backing file.
type Service struct {
	store     Storage
	uploadDir string
	limiter   *UploadLimiter
	mu        sync.Mutex
	now       func() time.Time
}

// NewService creates a Service over store.
func NewService(store Storage, opts Options) *Service {
	return &Service{
		store:     store,
		uploadDir: opts.UploadDir,
		limiter:   NewUploadLimiter(opts.MaxConcurrentUploads, opts.MaxUploadWait),
		now:       time.Now,
	}
}

// List returns every record in file order.
func (s *Service) List(ctx context.Context) ([]workbook.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	if ds.Records == nil {
		return []workbook.Record{}, nil
	}
	return ds.Records, nil
}

// Create appends a record built from fields. Its id is the current time in
// milliseconds, replacing any id the caller supplied. Two creates within the
// same millisecond receive the same id.
func (s *Service) Create(ctx context.Context, fields map[string]any) (workbook.Record, error) {
	if fields == nil {
		return nil, ErrInvalidRecord
	}
	if err := ValidateRecord(fields); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	rec := workbook.NormalizeRecord(fields)
	rec[workbook.IDField] = s.now().UnixMilli()
	ds.Records = append(ds.Records, rec)

	if err := s.store.Save(ds); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	callerLogger(ctx, "id", rec[workbook.IDField]).
		Info("record created", "records", len(ds.Records))
	return rec, nil
}

// Update merges fields onto the first record with the given id. Fields in
// the request win over stored ones, except id which keeps its path value.
// The file is not written when no record matches.
func (s *Service) Update(ctx context.Context, id int64, fields map[string]any) (workbook.Record, error) {
	if fields == nil {
		return nil, ErrInvalidRecord
	}
	if err := ValidateRecord(fields); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("update record %d: %w", id, err)
	}

	idx := ds.IndexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("update record %d: %w", id, ErrRecordNotFound)
	}

	rec := ds.Records[idx].Clone()
	for k, v := range workbook.NormalizeRecord(fields) {
		rec[k] = v
	}
	rec[workbook.IDField] = id
	ds.Records[idx] = rec

	if err := s.store.Save(ds); err != nil {
		return nil, fmt.Errorf("update record %d: %w", id, err)
	}

	callerLogger(ctx, "id", id).
		Info("record updated", "fields", len(fields))
	return rec, nil
}

// Delete removes the first record with the given id. The file is not
// written when no record matches.
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}

	idx := ds.IndexOf(id)
	if idx < 0 {
		return fmt.Errorf("delete record %d: %w", id, ErrRecordNotFound)
	}

	ds.Records = append(ds.Records[:idx], ds.Records[idx+1:]...)
	if err := s.store.Save(ds); err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}

	callerLogger(ctx, "id", id).
		Info("record deleted", "records", len(ds.Records))
	return nil
}
