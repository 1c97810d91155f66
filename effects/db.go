package effects

import "encoding/json"

// Effect is one externally supplied argument for a continuation point:
// a caller-chosen key and a raw JSON argument value.
type Effect struct {
	Key   string
	Value json.RawMessage
}

// DB supplies externally provided arguments, keyed by the derived path
// of the continuation point they apply to. Implementations may be
// backed by out-of-process services; a failed lookup surfaces as a
// compilation error.
type DB interface {
	Get(path *Path) ([]Effect, error)
}

// EmptyDB is a DB with no effects.
type EmptyDB struct{}

func (EmptyDB) Get(*Path) ([]Effect, error) { return nil, nil }

// MapDB is an in-memory DB keyed by the string form of paths.
// Effects are returned in insertion order, so expansion over them
// is deterministic.
type MapDB struct {
	effects map[string][]Effect
}

func NewMapDB() *MapDB {
	return &MapDB{effects: make(map[string][]Effect)}
}

// Set records an effect value for the continuation point at path.
// A later Set for the same (path, key) overwrites the earlier value.
func (db *MapDB) Set(path string, key string, value json.RawMessage) {
	for i, e := range db.effects[path] {
		if e.Key == key {
			db.effects[path][i].Value = value
			return
		}
	}
	db.effects[path] = append(db.effects[path], Effect{Key: key, Value: value})
}

func (db *MapDB) Get(path *Path) ([]Effect, error) {
	return db.effects[path.String()], nil
}
