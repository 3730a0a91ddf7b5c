package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	batchFileMode   = 0o600
	batchDirMode    = 0o700
	tempFilePattern = ".batch-*.toml.tmp"
)

// BatchRepository reads occurrence batches from a TOML file and writes the
// outcomes back to the same file.
type BatchRepository struct {
	path string
	mu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.BatchRepository = (*BatchRepository)(nil)

func NewBatchRepository(path string) *BatchRepository {
	normalized := normalizePath(path)
	return &BatchRepository{path: normalized, mu: lockForPath(normalized)}
}

func (r *BatchRepository) Path() string {
	return r.path
}

func (r *BatchRepository) Load(ctx context.Context) ([]domain.Occurrence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	occurrences := make([]domain.Occurrence, 0, len(file.Occurrences))
	for _, entry := range file.Occurrences {
		occurrences = append(occurrences, fromSchema(entry))
	}

	return occurrences, nil
}

func (r *BatchRepository) Save(ctx context.Context, occurrences []domain.Occurrence) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file := fileSchema{Occurrences: make([]occurrenceSchema, 0, len(occurrences))}
	for _, occurrence := range occurrences {
		file.Occurrences = append(file.Occurrences, toSchema(occurrence))
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *BatchRepository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, fmt.Errorf("%w: %s", domain.ErrBatchNotFound, r.path)
		}
		return fileSchema{}, fmt.Errorf("read batch file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode batch file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizePath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}

	return filepath.Clean(absPath)
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

// writeSchema replaces the batch file through a temp file in the same
// directory so readers never observe a partial write.
func (r *BatchRepository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.path), batchDirMode); err != nil {
		return fmt.Errorf("create batch directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode batch file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp batch file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp batch file: %w", err)
	}
	if err := tempFile.Chmod(batchFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp batch file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp batch file: %w", err)
	}

	if err := os.Rename(tempName, r.path); err != nil {
		return fmt.Errorf("replace batch file: %w", err)
	}
	cleanup = false

	return nil
}

func toSchema(occurrence domain.Occurrence) occurrenceSchema {
	var requestIDs []int64
	for _, id := range occurrence.RequestIDs {
		requestIDs = append(requestIDs, int64(id))
	}

	return occurrenceSchema{
		ServicePointID:            int64(occurrence.ServicePointID),
		RequestIDs:                requestIDs,
		OccurrenceID:              int64(occurrence.OccurrenceID),
		ServicePointIndex:         occurrence.ServicePointIndex,
		OriginTypeID:              int64(occurrence.OriginTypeID),
		OriginTypeDescription:     occurrence.OriginTypeDescription,
		OccurrenceTypeID:          int64(occurrence.OccurrenceTypeID),
		Priority:                  occurrence.Priority,
		OccurrenceTypeDescription: occurrence.OccurrenceTypeDescription,
		DeadlineDate:              occurrence.DeadlineDate,
		DeadlineTime:              occurrence.DeadlineTime,
		ComplaintDate:             occurrence.ComplaintDate,
		ComplaintTime:             occurrence.ComplaintTime,
		Observation:               occurrence.Observation,
		Outcome:                   string(occurrence.Outcome),
		Message:                   occurrence.Message,
	}
}

func fromSchema(entry occurrenceSchema) domain.Occurrence {
	var requestIDs []domain.RequestID
	for _, id := range entry.RequestIDs {
		requestIDs = append(requestIDs, domain.RequestID(id))
	}

	return domain.Occurrence{
		ServicePointID:            domain.ServicePointID(entry.ServicePointID),
		RequestIDs:                requestIDs,
		OccurrenceID:              domain.OccurrenceID(entry.OccurrenceID),
		ServicePointIndex:         entry.ServicePointIndex,
		OriginTypeID:              domain.OriginTypeID(entry.OriginTypeID),
		OriginTypeDescription:     entry.OriginTypeDescription,
		OccurrenceTypeID:          domain.OccurrenceTypeID(entry.OccurrenceTypeID),
		Priority:                  entry.Priority,
		OccurrenceTypeDescription: entry.OccurrenceTypeDescription,
		DeadlineDate:              entry.DeadlineDate,
		DeadlineTime:              entry.DeadlineTime,
		ComplaintDate:             entry.ComplaintDate,
		ComplaintTime:             entry.ComplaintTime,
		Observation:               entry.Observation,
		Outcome:                   domain.Outcome(entry.Outcome),
		Message:                   entry.Message,
	}
}
