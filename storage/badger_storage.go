package storage

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/go-oidfed/gatehouse/storage/model"
)

var (
	badgerUserIDPrefix   = []byte("users:id:")
	badgerUserNamePrefix = []byte("users:name:")
	badgerUserSeqKey     = []byte("users:seq")
)

const badgerGCInterval = 5 * time.Minute

// BadgerUsersStorage implements model.UserStore on an embedded badger database.
// Records are msgpack encoded under users:id:<id>; users:name:<username>
// holds the id and acts as the uniqueness index.
type BadgerUsersStorage struct {
	db   *badger.DB
	seq  *badger.Sequence
	stop chan struct{}
}

// NewBadgerUsersStorage opens (or creates) a badger database at path.
// InMemoryDSN opens a non-persistent database.
func NewBadgerUsersStorage(path string) (*BadgerUsersStorage, error) {
	var opts badger.Options
	if path == InMemoryDSN {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(log.WithField("component", "badger")).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open badger database")
	}
	seq, err := db.GetSequence(badgerUserSeqKey, 64)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to obtain id sequence")
	}
	s := &BadgerUsersStorage{
		db:   db,
		seq:  seq,
		stop: make(chan struct{}),
	}
	if !opts.InMemory {
		go s.runGC()
	}
	return s, nil
}

func (s *BadgerUsersStorage) runGC() {
	ticker := time.NewTicker(badgerGCInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			for s.db.RunValueLogGC(0.7) == nil {
			}
		}
	}
}

// Close releases the id sequence and closes the database
func (s *BadgerUsersStorage) Close() error {
	close(s.stop)
	if err := s.seq.Release(); err != nil {
		log.WithError(err).Warn("failed to release badger id sequence")
	}
	return s.db.Close()
}

func badgerIDKey(id uint) []byte {
	key := make([]byte, len(badgerUserIDPrefix)+8)
	copy(key, badgerUserIDPrefix)
	binary.BigEndian.PutUint64(key[len(badgerUserIDPrefix):], uint64(id))
	return key
}

func badgerNameKey(username string) []byte {
	return append(append([]byte{}, badgerUserNamePrefix...), username...)
}

func readUser(txn *badger.Txn, id uint) (*model.User, error) {
	item, err := txn.Get(badgerIDKey(id))
	if err != nil {
		return nil, err
	}
	var u model.User
	if err = item.Value(
		func(val []byte) error {
			return msgpack.Unmarshal(val, &u)
		},
	); err != nil {
		return nil, errors.Wrap(err, "failed to decode user")
	}
	return &u, nil
}

func writeUser(txn *badger.Txn, u *model.User) error {
	data, err := msgpack.Marshal(u)
	if err != nil {
		return errors.Wrap(err, "failed to encode user")
	}
	return txn.Set(badgerIDKey(u.ID), data)
}

// FindByID returns a user by id
func (s *BadgerUsersStorage) FindByID(_ context.Context, id uint) (u *model.User, err error) {
	err = s.db.View(
		func(txn *badger.Txn) error {
			u, err = readUser(txn, id)
			return err
		},
	)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	return
}

// FindByUsername returns a user by username
func (s *BadgerUsersStorage) FindByUsername(_ context.Context, username string) (u *model.User, err error) {
	err = s.db.View(
		func(txn *badger.Txn) error {
			item, err := txn.Get(badgerNameKey(username))
			if err != nil {
				return err
			}
			var raw []byte
			if raw, err = item.ValueCopy(nil); err != nil {
				return err
			}
			u, err = readUser(txn, uint(binary.BigEndian.Uint64(raw)))
			return err
		},
	)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	return
}

// Insert creates a user; the username must not be taken
func (s *BadgerUsersStorage) Insert(_ context.Context, u *model.User) (*model.User, error) {
	next, err := s.seq.Next()
	if err != nil {
		return nil, errors.Wrap(err, "failed to allocate user id")
	}
	rec := *u
	rec.ID = uint(next + 1)
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	err = s.db.Update(
		func(txn *badger.Txn) error {
			nameKey := badgerNameKey(rec.Username)
			_, err := txn.Get(nameKey)
			if err == nil {
				return model.AlreadyExistsErrorFmt("user already exists: %s", rec.Username)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err = writeUser(txn, &rec); err != nil {
				return err
			}
			idVal := make([]byte, 8)
			binary.BigEndian.PutUint64(idVal, uint64(rec.ID))
			return txn.Set(nameKey, idVal)
		},
	)
	if err != nil {
		// a concurrent transaction wrote the same name key
		if errors.Is(err, badger.ErrConflict) {
			return nil, model.AlreadyExistsErrorFmt("user already exists: %s", rec.Username)
		}
		var exists model.AlreadyExistsError
		if errors.As(err, &exists) {
			return nil, exists
		}
		return nil, errors.Wrap(err, "failed to create user")
	}
	return &rec, nil
}

// Update saves full name, password hash and active flag of an existing user
func (s *BadgerUsersStorage) Update(_ context.Context, u *model.User) error {
	err := s.db.Update(
		func(txn *badger.Txn) error {
			existing, err := readUser(txn, u.ID)
			if err != nil {
				return err
			}
			existing.FullName = u.FullName
			existing.PasswordHash = u.PasswordHash
			existing.IsActive = u.IsActive
			existing.UpdatedAt = time.Now()
			return writeUser(txn, existing)
		},
	)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return model.NotFoundErrorFmt("user not found: %d", u.ID)
	}
	return errors.Wrap(err, "failed to update user")
}

// Delete deletes a user by id
func (s *BadgerUsersStorage) Delete(_ context.Context, u *model.User) error {
	err := s.db.Update(
		func(txn *badger.Txn) error {
			existing, err := readUser(txn, u.ID)
			if err != nil {
				return err
			}
			if err = txn.Delete(badgerNameKey(existing.Username)); err != nil {
				return err
			}
			return txn.Delete(badgerIDKey(existing.ID))
		},
	)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return model.NotFoundErrorFmt("user not found: %d", u.ID)
	}
	return errors.Wrap(err, "failed to delete user")
}

// List returns users ordered by id
func (s *BadgerUsersStorage) List(_ context.Context, offset, limit int) ([]model.User, error) {
	users := []model.User{}
	err := s.db.View(
		func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = badgerUserIDPrefix
			it := txn.NewIterator(opts)
			defer it.Close()
			skipped := 0
			for it.Rewind(); it.Valid() && len(users) < limit; it.Next() {
				if skipped < offset {
					skipped++
					continue
				}
				var u model.User
				if err := it.Item().Value(
					func(val []byte) error {
						return msgpack.Unmarshal(val, &u)
					},
				); err != nil {
					return errors.Wrap(err, "failed to decode user")
				}
				users = append(users, u)
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the number of users present in the store
func (s *BadgerUsersStorage) Count(_ context.Context) (int64, error) {
	var count int64
	err := s.db.View(
		func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = badgerUserIDPrefix
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			defer it.Close()
			for it.Rewind(); it.Valid(); it.Next() {
				count++
			}
			return nil
		},
	)
	return count, err
}
