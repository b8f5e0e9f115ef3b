package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SnapshotPrefix is the key prefix all snapshots are stored under.
const SnapshotPrefix = "backups/"

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Archive is blob storage for snapshots.
type Archive interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// Snapshot is a stored export.
type Snapshot struct {
	Key         string    `json:"key"`
	RecipeCount int       `json:"recipe_count,omitempty"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// SnapshotService keeps server-side copies of exports in an Archive.
type SnapshotService struct {
	archive  Archive
	exporter *Exporter
	importer *Importer
}

func NewSnapshotService(archive Archive, exporter *Exporter, importer *Importer) *SnapshotService {
	return &SnapshotService{archive: archive, exporter: exporter, importer: importer}
}

// Create exports the whole catalog and stores it.
func (s *SnapshotService) Create(ctx context.Context) (*Snapshot, error) {
	doc, err := s.exporter.Export(ctx, nil)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := SnapshotPrefix + strings.TrimSuffix(Filename(doc.ExportedAt), ".json") +
		doc.ExportedAt.UTC().Format("-150405") + ".json"
	if err := s.archive.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}
	log.Printf("[Snapshots] stored %s with %d recipes", key, len(doc.Recipes))

	return &Snapshot{
		Key:         key,
		RecipeCount: len(doc.Recipes),
		Size:        int64(len(data)),
		CreatedAt:   doc.ExportedAt,
	}, nil
}

// List returns stored snapshots, newest first.
func (s *SnapshotService) List(ctx context.Context) ([]Snapshot, error) {
	objects, err := s.archive.List(ctx, SnapshotPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	snapshots := make([]Snapshot, 0, len(objects))
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		snapshots = append(snapshots, Snapshot{Key: obj.Key, Size: obj.Size, CreatedAt: obj.LastModified})
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
	})
	return snapshots, nil
}

// Restore imports a stored snapshot exactly like an uploaded file.
func (s *SnapshotService) Restore(ctx context.Context, key string, actor uuid.UUID, opts Options) (*Summary, error) {
	if !strings.HasPrefix(key, SnapshotPrefix) {
		return nil, fmt.Errorf("snapshot key must start with %q", SnapshotPrefix)
	}
	body, err := s.archive.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return s.importer.Import(ctx, data, actor, opts)
}
