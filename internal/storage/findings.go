package storage

import (
	"encoding/json"
	"fmt"

	"github.com/hakim/sshenum/internal/models"
	"go.etcd.io/bbolt"
)

func findingKey(f *models.Finding) []byte {
	return []byte(fmt.Sprintf("%s/%s", models.Target{Host: f.Host, Port: f.Port}, f.Username))
}

// SaveFinding stores f under its scan. Findings are write-once: saving the
// same host, port and username again within a scan leaves the first record.
func (s *Store) SaveFinding(f *models.Finding) error {
	if f.ScanID == "" {
		return fmt.Errorf("finding for %q has no scan id", f.Username)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket([]byte(bucketFindings)).CreateBucketIfNotExists([]byte(f.ScanID))
		if err != nil {
			return err
		}

		key := findingKey(f)
		if b.Get(key) != nil {
			return nil
		}

		data, err := json.Marshal(f)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

// ListFindings returns a scan's findings ordered by host:port then username.
func (s *Store) ListFindings(scanID string) ([]*models.Finding, error) {
	var out []*models.Finding
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketFindings)).Bucket([]byte(scanID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var f models.Finding
			if err := json.Unmarshal(v, &f); err != nil {
				return err
			}
			out = append(out, &f)
			return nil
		})
	})
	return out, err
}

// SaveService records the service observation for a target within a scan,
// replacing an earlier one.
func (s *Store) SaveService(info *models.ServiceInfo) error {
	if info.ScanID == "" {
		return fmt.Errorf("service record for %s has no scan id", info.Host)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket([]byte(bucketServices)).CreateBucketIfNotExists([]byte(info.ScanID))
		if err != nil {
			return err
		}
		data, err := json.Marshal(info)
		if err != nil {
			return err
		}
		key := models.Target{Host: info.Host, Port: info.Port}.String()
		return b.Put([]byte(key), data)
	})
}

// ListServices returns a scan's service observations ordered by host:port.
func (s *Store) ListServices(scanID string) ([]*models.ServiceInfo, error) {
	var out []*models.ServiceInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketServices)).Bucket([]byte(scanID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var info models.ServiceInfo
			if err := json.Unmarshal(v, &info); err != nil {
				return err
			}
			out = append(out, &info)
			return nil
		})
	})
	return out, err
}
