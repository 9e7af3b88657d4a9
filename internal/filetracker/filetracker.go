// Package filetracker snapshots a directory's file set to a manifest,
// diffs two snapshots, and can recover placeholder files from a prior
// snapshot (spec.md C11).
package filetracker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/renameio"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/sync/errgroup"

	"github.com/lithiumaddons/core/errs"
)

// FileRecord is one tracked file's state at scan time.
type FileRecord struct {
	Mtime       int64  `json:"mtime"`
	Size        int64  `json:"size"`
	ContentHash string `json:"content_hash"`
	Type        string `json:"type"`
}

// Snapshot maps a file path (relative to Tracker.Directory) to its record.
type Snapshot map[string]FileRecord

// Status classifies one diff entry.
type Status int

const (
	New Status = iota
	Modified
	Deleted
)

func (s Status) String() string {
	switch s {
	case New:
		return "new"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// DiffEntry is one path's change between two snapshots.
type DiffEntry struct {
	Path   string
	Status Status
	Old    *FileRecord
	New    *FileRecord
}

// Diff is the full result of Compare.
type Diff []DiffEntry

// Tracker tracks a directory's file set against an on-disk manifest.
type Tracker struct {
	Directory     string
	ManifestPath  string
	Extensions    []string // empty means track every file
	Recursive     bool

	mu            sync.Mutex
	current       Snapshot
	prior         Snapshot
	encryptionKey []byte
}

// New constructs a Tracker rooted at directory, persisting its manifest to
// manifestPath.
func New(directory, manifestPath string, extensions []string, recursive bool) *Tracker {
	return &Tracker{
		Directory:    directory,
		ManifestPath: manifestPath,
		Extensions:   extensions,
		Recursive:    recursive,
	}
}

// SetEncryptionKey enables at-rest encryption of the manifest file. Key
// must be a valid chacha20poly1305 key length.
func (t *Tracker) SetEncryptionKey(key []byte) error {
	if len(key) != chacha20poly1305.KeySize {
		return &errs.ParseError{Source: "encryption key", Reason: "must be chacha20poly1305.KeySize bytes"}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.encryptionKey = key
	return nil
}

func (t *Tracker) tracked(name string) bool {
	if len(t.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, e := range t.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Scan walks the tracked directory, computing a record per tracked file
// in parallel workers, and writes the resulting manifest atomically. The
// previously loaded manifest, if any, is kept as the prior snapshot for a
// later Compare. Per-file I/O failures are logged and the file is omitted
// from the snapshot; the scan as a whole still succeeds.
func (t *Tracker) Scan(ctx context.Context) error {
	var paths []string
	walk := filepath.WalkDir
	err := walk(t.Directory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if !t.Recursive && path != t.Directory {
				return filepath.SkipDir
			}
			return nil
		}
		if t.tracked(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return &errs.IoError{Op: "walk", Path: t.Directory, Err: err}
	}

	var mu sync.Mutex
	snapshot := make(Snapshot, len(paths))
	eg, _ := errgroup.WithContext(ctx)
	for _, p := range paths {
		p := p
		eg.Go(func() error {
			info, err := os.Stat(p)
			if err != nil {
				log.Printf("filetracker: stat %s: %v", p, err)
				return nil // logged-and-skipped per spec.md's failure semantics
			}
			hash, err := hashFile(p)
			if err != nil {
				log.Printf("filetracker: hashing %s: %v", p, err)
				return nil
			}
			rel, err := filepath.Rel(t.Directory, p)
			if err != nil {
				rel = p
			}
			rec := FileRecord{
				Mtime:       info.ModTime().Unix(),
				Size:        info.Size(),
				ContentHash: hash,
				Type:        filepath.Ext(p),
			}
			mu.Lock()
			snapshot[rel] = rec
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait() // per-file failures are swallowed above; Wait never actually errors

	t.mu.Lock()
	prior := t.current
	key := t.encryptionKey
	firstScanThisProcess := t.current == nil
	t.mu.Unlock()

	if firstScanThisProcess {
		// A fresh Tracker has no in-memory prior; fall back to whatever
		// manifest already exists on disk from an earlier process.
		if onDisk, err := readManifest(t.ManifestPath, key); err == nil {
			prior = onDisk
		}
	}

	t.mu.Lock()
	t.prior = prior
	t.current = snapshot
	t.mu.Unlock()

	return writeManifest(t.ManifestPath, snapshot, key)
}

// AsyncScan runs Scan on a background goroutine, delivering the result on
// the returned channel.
func (t *Tracker) AsyncScan(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- t.Scan(ctx) }()
	return done
}

// Compare diffs the current snapshot against the prior one loaded before
// the most recent Scan. If no prior snapshot exists (first scan, or the
// manifest didn't exist yet), every current entry reports New.
func (t *Tracker) Compare() Diff {
	t.mu.Lock()
	current := t.current
	prior := t.prior
	t.mu.Unlock()

	var diff Diff
	for path, rec := range current {
		rec := rec
		if old, ok := prior[path]; ok {
			if old.ContentHash != rec.ContentHash {
				old := old
				diff = append(diff, DiffEntry{Path: path, Status: Modified, Old: &old, New: &rec})
			}
		} else {
			diff = append(diff, DiffEntry{Path: path, Status: New, New: &rec})
		}
	}
	for path, rec := range prior {
		rec := rec
		if _, ok := current[path]; !ok {
			diff = append(diff, DiffEntry{Path: path, Status: Deleted, Old: &rec})
		}
	}
	sort.Slice(diff, func(i, j int) bool { return diff[i].Path < diff[j].Path })
	return diff
}

// AsyncCompare runs Compare on a background goroutine.
func (t *Tracker) AsyncCompare() <-chan Diff {
	done := make(chan Diff, 1)
	go func() { done <- t.Compare() }()
	return done
}

// LogDifferences appends the current Compare() result to logPath, one line
// per entry.
func (t *Tracker) LogDifferences(logPath string) error {
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return &errs.IoError{Op: "open", Path: logPath, Err: err}
	}
	defer f.Close()

	for _, entry := range t.Compare() {
		line := time.Now().UTC().Format(time.RFC3339) + " " + entry.Status.String() + " " + entry.Path + "\n"
		if _, err := f.WriteString(line); err != nil {
			return &errs.IoError{Op: "write", Path: logPath, Err: err}
		}
	}
	return nil
}

// Recover reads the manifest at manifestPath and, for every entry whose
// file is absent on disk, creates an empty placeholder carrying the
// snapshot's mtime. The tracker is a change-detection tool, not a backup
// store, so file content is never restored.
func (t *Tracker) Recover(manifestPath string) error {
	t.mu.Lock()
	key := t.encryptionKey
	t.mu.Unlock()

	snapshot, err := readManifest(manifestPath, key)
	if err != nil {
		return err
	}
	for rel, rec := range snapshot {
		full := filepath.Join(t.Directory, rel)
		if _, err := os.Stat(full); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			continue
		}
		if err := os.WriteFile(full, nil, 0o644); err != nil {
			continue
		}
		mtime := time.Unix(rec.Mtime, 0)
		_ = os.Chtimes(full, mtime, mtime)
	}
	return nil
}

func writeManifest(path string, snapshot Snapshot, key []byte) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if len(key) > 0 {
		data, err = encrypt(data, key)
		if err != nil {
			return err
		}
	}
	if strings.HasSuffix(path, ".zst") {
		data, err = compress(data)
		if err != nil {
			return err
		}
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return &errs.IoError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func readManifest(path string, key []byte) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.IoError{Op: "read", Path: path, Err: err}
	}
	if strings.HasSuffix(path, ".zst") {
		data, err = decompress(data)
		if err != nil {
			return nil, &errs.ParseError{Source: path, Reason: err.Error()}
		}
	}
	if len(key) > 0 {
		data, err = decrypt(data, key)
		if err != nil {
			return nil, &errs.ParseError{Source: path, Reason: err.Error()}
		}
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, &errs.ParseError{Source: path, Reason: err.Error()}
	}
	return snapshot, nil
}

func compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
