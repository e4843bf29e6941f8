package storage

import (
	"encoding/json"
	"slices"
	"sort"
	"time"

	"github.com/hakim/sshenum/internal/models"
	"go.etcd.io/bbolt"
)

// SaveScan persists a scan record and indexes it under every target it covers.
func (s *Store) SaveScan(meta *models.ScanMeta) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}

		scans := tx.Bucket([]byte(bucketScans))
		if err := scans.Put([]byte(meta.ID), data); err != nil {
			return err
		}

		// Update scan index (host:port -> []scan_id mapping)
		index := tx.Bucket([]byte(bucketScanIndex))
		for _, target := range meta.Targets {
			key := []byte(target)

			var scanIDs []string
			if existing := index.Get(key); existing != nil {
				if err := json.Unmarshal(existing, &scanIDs); err != nil {
					return err
				}
			}
			if slices.Contains(scanIDs, meta.ID) {
				continue
			}
			scanIDs = append(scanIDs, meta.ID)

			indexData, err := json.Marshal(scanIDs)
			if err != nil {
				return err
			}
			if err := index.Put(key, indexData); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetScan retrieves a scan record by ID. A missing scan is (nil, nil).
func (s *Store) GetScan(id string) (*models.ScanMeta, error) {
	var meta *models.ScanMeta

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketScans)).Get([]byte(id))
		if data == nil {
			return nil
		}
		meta = &models.ScanMeta{}
		return json.Unmarshal(data, meta)
	})

	return meta, err
}

// ListScans returns every scan that covered target (host:port), newest first.
func (s *Store) ListScans(target string) ([]*models.ScanMeta, error) {
	var scans []*models.ScanMeta

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketScanIndex)).Get([]byte(target))
		if data == nil {
			return nil
		}

		var scanIDs []string
		if err := json.Unmarshal(data, &scanIDs); err != nil {
			return err
		}

		scansBucket := tx.Bucket([]byte(bucketScans))
		for _, id := range scanIDs {
			scanData := scansBucket.Get([]byte(id))
			if scanData == nil {
				continue
			}
			var meta models.ScanMeta
			if err := json.Unmarshal(scanData, &meta); err != nil {
				return err
			}
			scans = append(scans, &meta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(scans, func(i, j int) bool {
		return scans[i].StartedAt.After(scans[j].StartedAt)
	})
	return scans, nil
}

// GetLatestScan retrieves the most recent scan for a target
func (s *Store) GetLatestScan(target string) (*models.ScanMeta, error) {
	scans, err := s.ListScans(target)
	if err != nil {
		return nil, err
	}
	if len(scans) == 0 {
		return nil, nil
	}
	return scans[0], nil
}

// UpdateScanStatus updates the status of a scan and sets CompletedAt when the
// status is terminal.
func (s *Store) UpdateScanStatus(id string, status models.ScanStatus) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		scans := tx.Bucket([]byte(bucketScans))

		data := scans.Get([]byte(id))
		if data == nil {
			return nil // Not found, no-op
		}

		var meta models.ScanMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}

		meta.Status = status
		if status.Terminal() && meta.CompletedAt == nil {
			now := time.Now()
			meta.CompletedAt = &now
		}

		updated, err := json.Marshal(&meta)
		if err != nil {
			return err
		}
		return scans.Put([]byte(id), updated)
	})
}
