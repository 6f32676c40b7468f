package examcodes

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Snapshot is the on-disk form of a directory.
type Snapshot struct {
	Data Directory `json:"data"`
	// Timestamp is seconds since the unix epoch.
	Timestamp float64 `json:"timestamp"`
}

func NewSnapshot(dir Directory, now time.Time) Snapshot {
	return Snapshot{
		Data:      dir,
		Timestamp: float64(now.UnixNano()) / float64(time.Second),
	}
}

func (s Snapshot) Time() time.Time {
	return time.Unix(0, int64(s.Timestamp*float64(time.Second)))
}

// Store reads and writes the snapshot file.
type Store struct {
	Path   string
	MaxAge time.Duration
}

const DefaultMaxAge = time.Hour * 24

func NewStore(path string, maxAge time.Duration) Store {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return Store{Path: path, MaxAge: maxAge}
}

// Load returns an error satisfying os.IsNotExist if there is no snapshot yet.
func (s Store) Load() (Snapshot, error) {
	buff, err := os.ReadFile(s.Path)
	if err != nil {
		return Snapshot{}, err
	}
	var snapshot Snapshot
	err = json.Unmarshal(buff, &snapshot)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	if snapshot.Data == nil {
		snapshot.Data = NewDirectory()
	}
	return snapshot, nil
}

// Save replaces the snapshot file. The snapshot is written to a temporary file
// next to it first, so a reader sees either the old or the new snapshot.
func (s Store) Save(snapshot Snapshot) error {
	buff, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return err
	}
	_, err = tmp.Write(buff)
	if err == nil {
		err = tmp.Sync()
	}
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), s.Path)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", s.Path, err)
	}
	return nil
}

// Fresh reports whether snapshot is younger than the store's max age at now.
func (s Store) Fresh(snapshot Snapshot, now time.Time) bool {
	return now.Sub(snapshot.Time()) < s.MaxAge
}
