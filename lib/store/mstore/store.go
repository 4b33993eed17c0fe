package mstore

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gabriel-vasile/mimetype"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/lucid-kv/lucid/lib/crypt"
	"github.com/lucid-kv/lucid/lib/db"
	"github.com/lucid-kv/lucid/lib/store"
)

var Logger = logger.GetLogger("store")

// Options configures a memory store
type Options struct {
	Cipher  crypt.ICipher // Cipher for values at rest (nil = no encryption)
	Name    string        // Name of the store, used as metrics label (empty = "default")
	Metrics *metrics.Set  // Set the store metrics are registered in (nil = private set)
}

type storeImpl struct {
	db      db.KVDB
	cipher  crypt.ICipher
	metrics *storeMetrics
}

// NewMemoryStore creates a new in-memory store on top of the db created by factory.
func NewMemoryStore(factory store.DBFactory, opts *Options) store.IStore {
	if opts == nil {
		opts = &Options{}
	}
	cipher := opts.Cipher
	if cipher == nil {
		cipher = crypt.NewIdentityCipher()
	}
	name := opts.Name
	if name == "" {
		name = "default"
	}
	set := opts.Metrics
	if set == nil {
		set = metrics.NewSet()
	}

	s := &storeImpl{
		db:     factory(),
		cipher: cipher,
	}
	s.metrics = newStoreMetrics(set, name, func() float64 {
		return float64(s.db.Len())
	})
	return s
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// contentTag sniffs the content type of a plaintext value
func contentTag(plaintext []byte) string {
	return mimetype.Detect(plaintext).String()
}

// open returns the plaintext of a stored element.
func (s *storeImpl) open(key string, elem db.Element) ([]byte, error) {
	if s.cipher.Enabled() && len(elem.IV) == 0 {
		return nil, store.Errorf(store.RetCInternalError, "element %q has no iv but encryption is enabled", key)
	}
	plaintext, err := s.cipher.Open(elem.Data, elem.IV)
	if err != nil {
		Logger.Warningf("decrypting element %q failed: %v", key, err)
		return nil, store.Errorf(store.RetCCryptoError, "decrypting element %q: %v", key, err)
	}
	return plaintext, nil
}

// seal encrypts a plaintext value with a fresh iv.
func (s *storeImpl) seal(key string, plaintext []byte) ([]byte, []byte, error) {
	data, iv, err := s.cipher.Seal(plaintext)
	if err != nil {
		Logger.Warningf("encrypting element %q failed: %v", key, err)
		return nil, nil, store.Errorf(store.RetCCryptoError, "encrypting element %q: %v", key, err)
	}
	return data, iv, nil
}

// touch records a write attempt on an element without changing its data
func touch(elem *db.Element, now time.Time) {
	elem.UpdatedAt = now
	elem.UpdateCount++
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Get(key string) (db.Element, bool, error) {
	defer s.metrics.observe(opGet, time.Now())

	elem, ok := s.db.Load(key)
	if !ok {
		s.metrics.count(opGet, resultMiss)
		return db.Element{}, false, nil
	}

	plaintext, err := s.open(key, elem)
	if err != nil {
		s.metrics.count(opGet, resultError)
		return db.Element{}, false, err
	}
	elem.Data = plaintext

	s.metrics.count(opGet, resultOk)
	return elem, true, nil
}

func (s *storeImpl) Set(key string, value []byte) (db.Element, bool, error) {
	defer s.metrics.observe(opSet, time.Now())

	// encrypt before taking the key
	tag := contentTag(value)
	data, iv, err := s.seal(key, value)
	if err != nil {
		s.metrics.count(opSet, resultError)
		return db.Element{}, false, err
	}

	var loaded bool
	elem, _ := s.db.Compute(key, func(old db.Element, exists bool) (db.Element, bool) {
		now := time.Now()
		loaded = exists

		if !exists {
			return db.Element{
				Data:        data,
				ContentTag:  tag,
				CreatedAt:   now,
				UpdatedAt:   now,
				UpdateCount: 1,
				IV:          iv,
			}, false
		}

		touch(&old, now)
		if !old.Locked {
			old.Data = data
			old.IV = iv
			old.ContentTag = tag
		}
		return old, false
	})

	if !loaded {
		s.metrics.count(opSet, resultCreated)
		return db.Element{}, false, nil
	}

	if !elem.Locked {
		elem.Data = append([]byte(nil), value...)
		s.metrics.count(opSet, resultOk)
		return elem, true, nil
	}

	// locked: hand out the value that is still stored
	plaintext, err := s.open(key, elem)
	if err != nil {
		s.metrics.count(opSet, resultError)
		return db.Element{}, true, err
	}
	elem.Data = plaintext
	s.metrics.count(opSet, resultLocked)
	return elem, true, nil
}

func (s *storeImpl) Delete(key string) error {
	defer s.metrics.observe(opDelete, time.Now())

	s.db.Delete(key)
	s.metrics.count(opDelete, resultOk)
	return nil
}

func (s *storeImpl) SetLock(key string, locked bool) (bool, error) {
	defer s.metrics.observe(opSetLock, time.Now())

	_, ok := s.db.Compute(key, func(old db.Element, exists bool) (db.Element, bool) {
		if !exists {
			return old, true // keep absent
		}
		old.Locked = locked
		return old, false
	})

	if !ok {
		s.metrics.count(opSetLock, resultMiss)
		return false, nil
	}
	s.metrics.count(opSetLock, resultOk)
	return true, nil
}

func (s *storeImpl) Add(key string, addend float64) (bool, error) {
	defer s.metrics.observe(opAdd, time.Now())

	var (
		result = resultMiss
		addErr error
	)

	s.db.Compute(key, func(old db.Element, exists bool) (db.Element, bool) {
		if !exists {
			return old, true
		}

		now := time.Now()
		if old.Locked {
			result = resultLocked
			touch(&old, now)
			return old, false
		}

		plaintext, err := s.open(key, old)
		if err != nil {
			result, addErr = resultError, err
			return old, false
		}

		if !utf8.Valid(plaintext) {
			result = resultInvalid
			return old, false
		}
		current, err := strconv.ParseFloat(strings.TrimSpace(string(plaintext)), 64)
		if err != nil {
			result = resultInvalid
			return old, false
		}

		rendered := []byte(strconv.FormatFloat(current+addend, 'f', -1, 64))
		data, iv, err := s.seal(key, rendered)
		if err != nil {
			result, addErr = resultError, err
			return old, false
		}

		old.Data = data
		old.IV = iv
		old.ContentTag = contentTag(rendered)
		touch(&old, now)
		result = resultOk
		return old, false
	})

	s.metrics.count(opAdd, result)
	if addErr != nil {
		return false, addErr
	}
	return result == resultOk, nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}
