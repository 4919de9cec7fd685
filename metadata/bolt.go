package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"fotomu/models"
)

const (
	boltFilePerm    = fs.FileMode(0o600)
	boltOpenTimeout = 5 * time.Second
)

var (
	filesBucket     = []byte("files")
	favoritesBucket = []byte("favorites")
	foldersBucket   = []byte("folders")
	orphansBucket   = []byte("orphans")

	allBuckets = [][]byte{filesBucket, favoritesBucket, foldersBucket, orphansBucket}
)

// Bolt keeps the document in a bbolt database, one bucket per collection.
// Records are JSON encoded; favorites and orphans are bare keys.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens the database at path, creating it and its buckets if they
// do not exist.
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("creating metadata directory: %w", err)
	}

	db, err := bolt.Open(path, boltFilePerm, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening metadata db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing metadata db: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Close releases the database file lock.
func (b *Bolt) Close() error {
	return b.db.Close()
}

func (b *Bolt) Load(_ context.Context) (*models.State, error) {
	state := models.NewState()

	err := b.db.View(func(tx *bolt.Tx) error {
		err := tx.Bucket(filesBucket).ForEach(func(_, v []byte) error {
			var rec models.FileRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decoding file record: %w", err)
			}
			state.Files = append(state.Files, rec)
			return nil
		})
		if err != nil {
			return err
		}

		err = tx.Bucket(foldersBucket).ForEach(func(_, v []byte) error {
			var f models.Folder
			if err := json.Unmarshal(v, &f); err != nil {
				return fmt.Errorf("decoding folder: %w", err)
			}
			state.Folders = append(state.Folders, f)
			return nil
		})
		if err != nil {
			return err
		}

		err = tx.Bucket(favoritesBucket).ForEach(func(k, _ []byte) error {
			state.Favorites = append(state.Favorites, string(k))
			return nil
		})
		if err != nil {
			return err
		}

		return tx.Bucket(orphansBucket).ForEach(func(k, _ []byte) error {
			state.Orphans = append(state.Orphans, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("loading metadata: %w", err)
	}

	sort.SliceStable(state.Folders, func(i, j int) bool {
		return state.Folders[i].CreatedAt.Before(state.Folders[j].CreatedAt)
	})
	return state, nil
}

// Save replaces every bucket's contents in a single transaction.
func (b *Bolt) Save(_ context.Context, state *models.State) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("clearing %s: %w", name, err)
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("recreating %s: %w", name, err)
			}
		}

		files := tx.Bucket(filesBucket)
		for _, rec := range state.Files {
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := files.Put([]byte(rec.FileID), data); err != nil {
				return fmt.Errorf("saving file record %q: %w", rec.FileID, err)
			}
		}

		folders := tx.Bucket(foldersBucket)
		for _, f := range state.Folders {
			data, err := json.Marshal(f)
			if err != nil {
				return err
			}
			if err := folders.Put([]byte(f.Name), data); err != nil {
				return fmt.Errorf("saving folder %q: %w", f.Name, err)
			}
		}

		if err := putKeys(tx.Bucket(favoritesBucket), state.Favorites); err != nil {
			return fmt.Errorf("saving favorites: %w", err)
		}
		if err := putKeys(tx.Bucket(orphansBucket), state.Orphans); err != nil {
			return fmt.Errorf("saving orphans: %w", err)
		}
		return nil
	})
}

func putKeys(bucket *bolt.Bucket, keys []string) error {
	for _, k := range keys {
		if err := bucket.Put([]byte(k), []byte{}); err != nil {
			return err
		}
	}
	return nil
}
