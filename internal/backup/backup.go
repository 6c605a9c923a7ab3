// Package backup exports the journal as one JSON document, encrypts it with
// a passphrase, and keeps the result locally, optionally mirroring it to an
// S3-compatible bucket. The export is collection-based rather than a raw
// database file copy so a backup taken on any engine restores onto any
// other.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mhollis/serenity/internal/storage"
)

// snapshotVersion guards the export format for future readers.
const snapshotVersion = 1

// s3Client is the slice of the S3 API the manager uses, as an interface for
// testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds the optional S3-compatible mirror target.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds backup manager configuration.
type Config struct {
	// Dir is where encrypted snapshots are written locally.
	Dir string
	S3  S3Config
}

// Snapshot is the decrypted export payload.
type Snapshot struct {
	Version    int                         `json:"version"`
	ExportedAt string                      `json:"exportedAt"`
	Records    map[string][]storage.Record `json:"records"`
}

// Entry describes one completed backup.
type Entry struct {
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"sizeBytes"`
	S3Key     string `json:"s3Key,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// Manager produces and restores encrypted snapshots.
type Manager struct {
	mu     sync.Mutex
	cfg    Config
	store  *storage.Adapter
	client s3Client
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a backup manager. The S3 mirror is active only when
// bucket and credentials are all configured.
func NewManager(cfg Config, store *storage.Adapter, logger *slog.Logger) *Manager {
	m := &Manager{cfg: cfg, store: store, logger: logger, now: time.Now}
	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" {
		m.client = newS3Client(cfg.S3)
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// MirrorEnabled reports whether snapshots are uploaded off-device.
func (m *Manager) MirrorEnabled() bool { return m.client != nil }

// export serializes every collection into one snapshot document.
func (m *Manager) export(ctx context.Context) ([]byte, error) {
	snap := Snapshot{
		Version:    snapshotVersion,
		ExportedAt: m.now().UTC().Format(time.RFC3339),
		Records:    make(map[string][]storage.Record, len(storage.CollectionNames)),
	}
	for _, name := range storage.CollectionNames {
		snap.Records[name] = m.store.GetAll(ctx, name)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// BackupNow exports, encrypts, and writes a snapshot, mirroring it to S3
// when configured.
func (m *Manager) BackupNow(ctx context.Context, passphrase string) (*Entry, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("backup passphrase required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	plaintext, err := m.export(ctx)
	if err != nil {
		return nil, err
	}
	sealed, err := Encrypt(plaintext, passphrase)
	if err != nil {
		return nil, fmt.Errorf("encrypt snapshot: %w", err)
	}

	if err := os.MkdirAll(m.cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	name := fmt.Sprintf("serenity-%s.enc", m.now().UTC().Format("20060102-150405"))
	path := filepath.Join(m.cfg.Dir, name)
	if err := os.WriteFile(path, sealed, 0o600); err != nil {
		return nil, fmt.Errorf("write snapshot: %w", err)
	}

	entry := &Entry{
		Filename:  name,
		SizeBytes: int64(len(sealed)),
		CreatedAt: m.now().UTC().Format(time.RFC3339),
	}

	if m.client != nil {
		key := "backups/" + name
		_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(m.cfg.S3.Bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(sealed),
		})
		if err != nil {
			// The local snapshot is intact; report the mirror failure
			// without discarding it.
			m.logger.Error("mirror snapshot", "key", key, "error", err)
		} else {
			entry.S3Key = key
			m.logger.Info("snapshot mirrored", "key", key, "bytes", entry.SizeBytes)
		}
	}

	m.logger.Info("backup written", "file", name, "bytes", entry.SizeBytes)
	return entry, nil
}

// History lists local snapshots, newest first.
func (m *Manager) History() ([]Entry, error) {
	entries, err := os.ReadDir(m.cfg.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var out []Entry
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".enc" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			Filename:  e.Name(),
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime().UTC().Format(time.RFC3339),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename > out[j].Filename })
	return out, nil
}

// Restore decrypts a local snapshot and makes each collection match it.
// Snapshot rows are applied first (update in place or add); records absent
// from the snapshot are pruned only after the whole collection applied, so
// a failure mid-import never leaves the store emptied.
func (m *Manager) Restore(ctx context.Context, filename, passphrase string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sealed, err := os.ReadFile(filepath.Join(m.cfg.Dir, filepath.Base(filename)))
	if err != nil {
		return 0, fmt.Errorf("read snapshot: %w", err)
	}
	plaintext, err := Decrypt(sealed, passphrase)
	if err != nil {
		return 0, fmt.Errorf("open snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(plaintext, &snap); err != nil {
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return 0, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	imported := 0
	for _, name := range storage.CollectionNames {
		keep := make(map[string]bool, len(snap.Records[name]))
		for _, rec := range snap.Records[name] {
			id, _ := rec["id"].(string)
			if id != "" && m.store.GetByID(ctx, name, id) != nil {
				if _, err := m.store.Update(ctx, name, id, rec); err != nil {
					return imported, fmt.Errorf("restore %s: %w", name, err)
				}
			} else {
				added, err := m.store.Add(ctx, name, rec)
				if err != nil {
					return imported, fmt.Errorf("restore %s: %w", name, err)
				}
				id, _ = added["id"].(string)
			}
			keep[id] = true
			imported++
		}
		for _, rec := range m.store.GetAll(ctx, name) {
			if id, _ := rec["id"].(string); id != "" && !keep[id] {
				m.store.Remove(ctx, name, id)
			}
		}
	}

	m.logger.Info("snapshot restored", "file", filename, "records", imported)
	return imported, nil
}
