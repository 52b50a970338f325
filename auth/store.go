package auth

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gragonvlad/stitch-go-sdk/storage"
)

const (
	authInfoStorageKey = "auth_info"
	deviceIDStorageKey = "device_id"
)

// authStore reads and writes AuthInfo through the durable storage
// collaborator. State is pushed to storage on every transition and read back
// only at construction.
type authStore struct {
	storage storage.Storage
}

// load returns the persisted AuthInfo, or the empty AuthInfo when nothing
// has been stored yet.
func (s authStore) load() (AuthInfo, error) {
	data, err := s.storage.Get(authInfoStorageKey)
	if errors.Is(err, storage.KeyNotFoundErr) {
		return AuthInfo{}, nil
	}
	if err != nil {
		return AuthInfo{}, errors.Wrap(err, "[authStore.load] reading auth info")
	}
	var info AuthInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return AuthInfo{}, errors.Wrap(err, "[authStore.load] parsing auth info")
	}
	return info, nil
}

func (s authStore) save(info AuthInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return errors.Wrap(err, "[authStore.save] encoding auth info")
	}
	if err := s.storage.Set(authInfoStorageKey, data); err != nil {
		return errors.Wrap(err, "[authStore.save] writing auth info")
	}
	return nil
}

// loadOrCreateInstallationID returns this installation's stable client-side
// device identifier, minting and persisting one on first use.
func (s authStore) loadOrCreateInstallationID() (string, error) {
	data, err := s.storage.Get(deviceIDStorageKey)
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, storage.KeyNotFoundErr) {
		return "", errors.Wrap(err, "[authStore.loadOrCreateInstallationID] reading device id")
	}
	id := uuid.NewString()
	if err := s.storage.Set(deviceIDStorageKey, []byte(id)); err != nil {
		return "", errors.Wrap(err, "[authStore.loadOrCreateInstallationID] writing device id")
	}
	return id, nil
}
