package persistence

import (
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketAccessoryIDs = []byte("accessory_ids")

// AccessoryIDStore allocates stable HomeKit accessory ids per entity, backed
// by bbolt. Id 1 belongs to the bridge accessory itself, so allocation starts
// at 2.
type AccessoryIDStore struct {
	db *bolt.DB
}

func NewAccessoryIDStore(path string) (*AccessoryIDStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAccessoryIDs)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &AccessoryIDStore{db: db}, nil
}

// AccessoryID returns the entity's id, allocating the next free one on first
// sight.
func (s *AccessoryIDStore) AccessoryID(entityID string) (uint64, error) {
	var id uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAccessoryIDs)
		if v := b.Get([]byte(entityID)); v != nil {
			id = binary.BigEndian.Uint64(v)
			return nil
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		id = seq + 1
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], id)
		return b.Put([]byte(entityID), buf[:])
	})
	return id, err
}

func (s *AccessoryIDStore) Close() error {
	return s.db.Close()
}
