package symbols

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"github.com/tidwall/tinylru"
	"go.etcd.io/bbolt"
)

const (
	DEFAULT_BOLT_CACHE_SIZE = 2000
	BOLT_OPEN_TIMEOUT       = time.Second
)

var (
	classesBucket   = []byte("classes")
	functionsBucket = []byte("functions")
	metaBucket      = []byte("meta")

	fileCountKey = []byte("files")
)

// BoltTable is a Table persisted in a bbolt database: each record is stored as zstd-compressed JSON.
// Decoded records are kept in a LRU cache. Lookups that miss fall back to the parent source.
type BoltTable struct {
	resolver
	db      *bbolt.DB
	parent  Source //can be nil
	cache   tinylru.LRU
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// OpenBoltTable opens (or creates) the database at path, parent can be nil.
func OpenBoltTable(path string, parent Source, ignoredTypes ...string) (*BoltTable, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: BOLT_OPEN_TIMEOUT})
	if err != nil {
		return nil, fmt.Errorf("failed to open the symbol database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{classesBucket, functionsBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize the symbol database: %w", err)
	}

	encoder, _ := zstd.NewWriter(nil)
	decoder, _ := zstd.NewReader(nil)

	table := &BoltTable{
		db:      db,
		parent:  parent,
		encoder: encoder,
		decoder: decoder,
	}
	table.cache.Resize(DEFAULT_BOLT_CACHE_SIZE)
	table.resolver = newResolver(table, ignoredTypes)
	return table, nil
}

func (t *BoltTable) Close() error {
	t.decoder.Close()
	return t.db.Close()
}

// Store persists the records of the index, a record replaces a previous record with the same name.
func (t *BoltTable) Store(index *Index, fileCount int) error {
	err := t.db.Update(func(tx *bbolt.Tx) error {
		classes := tx.Bucket(classesBucket)
		for _, class := range index.Classes {
			if err := t.put(classes, Key(class.Name), class); err != nil {
				return err
			}
		}

		functions := tx.Bucket(functionsBucket)
		for _, fn := range index.Functions {
			if err := t.put(functions, Key(fn.Name), fn); err != nil {
				return err
			}
		}

		return tx.Bucket(metaBucket).Put(fileCountKey, []byte(fmt.Sprint(fileCount)))
	})
	if err != nil {
		return fmt.Errorf("failed to store the index: %w", err)
	}

	t.cache = tinylru.LRU{}
	t.cache.Resize(DEFAULT_BOLT_CACHE_SIZE)
	t.invalidate()
	return nil
}

func (t *BoltTable) put(bucket *bbolt.Bucket, key string, record any) error {
	serialized, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return bucket.Put([]byte(key), t.encoder.EncodeAll(serialized, nil))
}

func (t *BoltTable) get(bucket []byte, key string, record any) (bool, error) {
	var found bool
	err := t.db.View(func(tx *bbolt.Tx) error {
		compressed := tx.Bucket(bucket).Get([]byte(key))
		if compressed == nil {
			return nil
		}
		found = true

		serialized, err := t.decoder.DecodeAll(compressed, nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(serialized, record)
	})
	return found, err
}

func (t *BoltTable) LookupClass(key string) (*ClassInfo, bool) {
	cacheKey := "c:" + key
	if cached, ok := t.cache.Get(cacheKey); ok {
		return cached.(*ClassInfo), true
	}

	class := &ClassInfo{}
	found, err := t.get(classesBucket, key, class)
	if err == nil && found {
		t.cache.Set(cacheKey, class)
		return class, true
	}

	if t.parent != nil {
		return t.parent.LookupClass(key)
	}
	return nil, false
}

func (t *BoltTable) LookupFunction(key string) (*FunctionInfo, bool) {
	cacheKey := "f:" + key
	if cached, ok := t.cache.Get(cacheKey); ok {
		return cached.(*FunctionInfo), true
	}

	fn := &FunctionInfo{}
	found, err := t.get(functionsBucket, key, fn)
	if err == nil && found {
		t.cache.Set(cacheKey, fn)
		return fn, true
	}

	if t.parent != nil {
		return t.parent.LookupFunction(key)
	}
	return nil, false
}

func (t *BoltTable) IgnoreType(name string) bool {
	if t.resolver.IgnoreType(name) {
		return true
	}
	if parent, ok := t.parent.(Table); ok {
		return parent.IgnoreType(name)
	}
	return false
}

// Stats returns the number of persisted classes and functions.
func (t *BoltTable) Stats() (classes, functions int, err error) {
	err = t.db.View(func(tx *bbolt.Tx) error {
		classes = tx.Bucket(classesBucket).Stats().KeyN
		functions = tx.Bucket(functionsBucket).Stats().KeyN
		return nil
	})
	return
}

// ForEachClass calls fn for each persisted class in key order.
func (t *BoltTable) ForEachClass(fn func(class *ClassInfo) error) error {
	return t.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(classesBucket).ForEach(func(k, v []byte) error {
			serialized, err := t.decoder.DecodeAll(v, nil)
			if err != nil {
				return err
			}
			class := &ClassInfo{}
			if err := json.Unmarshal(serialized, class); err != nil {
				return err
			}
			return fn(class)
		})
	})
}
