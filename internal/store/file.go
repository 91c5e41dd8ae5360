package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/swwwjjw/barometer-pulkovo/internal/headhunter"
)

const (
	filePrefix   = "vacancies_"
	fileSuffix   = ".json"
	legacySuffix = ".txt"
	fileLayout   = "20060102_150405"
)

type snapshotFile struct {
	Items []headhunter.Item `json:"items"`
	Meta  snapshotMeta      `json:"meta"`
}

type snapshotMeta struct {
	TotalFetched int `json:"total_fetched"`
}

// FileStore keeps one JSON file per snapshot in a directory. File names carry
// the fetch time, so the newest snapshot sorts last. Files written with a .txt
// suffix by older fetchers are read as well.
type FileStore struct {
	dir string
	now func() time.Time
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now}
}

func (s *FileStore) Save(_ context.Context, items []headhunter.Item) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.MarshalIndent(snapshotFile{
		Items: items,
		Meta:  snapshotMeta{TotalFetched: len(items)},
	}, "", "    ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	name := filepath.Join(s.dir, filePrefix+s.now().Format(fileLayout)+fileSuffix)

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), name); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}

	return nil
}

func (s *FileStore) Load(_ context.Context) ([]headhunter.Item, error) {
	latest, err := s.latest()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", filepath.Base(latest), err)
	}

	return snap.Items, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) latest() (string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoSnapshot
	}
	if err != nil {
		return "", fmt.Errorf("list data dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) {
			continue
		}
		if strings.HasSuffix(name, fileSuffix) || strings.HasSuffix(name, legacySuffix) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", ErrNoSnapshot
	}

	// compare timestamps, not extensions
	sort.Slice(names, func(i, j int) bool {
		return stamp(names[i]) < stamp(names[j])
	})

	return filepath.Join(s.dir, names[len(names)-1]), nil
}

func stamp(name string) string {
	return strings.TrimSuffix(strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix), legacySuffix)
}
