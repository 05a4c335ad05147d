// Package boltstore guarda los ajustes del negocio en un archivo local (BoltDB),
// para que sobrevivan reinicios aunque no haya base de datos.
package boltstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"

	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/domain/settings"
)

const (
	bucketName = "settings"
	currentKey = "current"
)

type SettingsStore struct {
	db *bolt.DB
}

var _ settings.Store = (*SettingsStore)(nil)

// Open abre (o crea) el archivo y asegura el bucket.
func Open(path string) (*SettingsStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open settings file %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create settings bucket: %w", err)
	}

	return &SettingsStore{db: db}, nil
}

func (s *SettingsStore) Close() error {
	return s.db.Close()
}

func (s *SettingsStore) Load(ctx context.Context) (settings.Settings, bool, error) {
	var (
		out   settings.Settings
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(currentKey))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &out)
	})
	if err != nil {
		return settings.Settings{}, false, fmt.Errorf("load settings: %v: %w", err, errs.ErrBackend)
	}
	return out, found, nil
}

// Save no escribe si el contenido no cambió.
func (s *SettingsStore) Save(ctx context.Context, v settings.Settings) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if bytes.Equal(b.Get([]byte(currentKey)), data) {
			return nil
		}
		return b.Put([]byte(currentKey), data)
	})
	if err != nil {
		return fmt.Errorf("save settings: %v: %w", err, errs.ErrBackend)
	}
	return nil
}
