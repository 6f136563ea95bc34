package record

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/types"
)

// Table names used by the registries
const (
	TableAgentDefinitions = "agent_definitions"
	TableAgentExtensions  = "agent_extensions"
	TableAgentLogs        = "agent_logs"
)

// keySeparator joins key parts. It is a control character so that agent IDs
// such as "workout:message" never collide with the separator.
const keySeparator = "\x1f"

// Key is the logical identity of a version chain, e.g. (agentID) or
// (agentID, extensionType, extensionKey).
type Key []string

// NewKey builds a key from its parts
func NewKey(parts ...string) Key {
	return Key(parts)
}

// String returns the encoded form used as a storage column or field value
func (k Key) String() string {
	return strings.Join(k, keySeparator)
}

// ParseKey decodes a key produced by Key.String
func ParseKey(s string) Key {
	if s == "" {
		return Key{}
	}
	return Key(strings.Split(s, keySeparator))
}

// Equal reports whether two keys have identical parts
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// Validate checks that the key has at least one non-empty part and no part
// contains the separator.
func (k Key) Validate() error {
	if len(k) == 0 {
		return goerr.New("record key cannot be empty")
	}
	for i, p := range k {
		if p == "" {
			return goerr.New("record key part cannot be empty", goerr.V("index", i))
		}
		if strings.Contains(p, keySeparator) {
			return goerr.New("record key part contains reserved separator", goerr.V("index", i))
		}
	}
	return nil
}

// Record is one immutable version of an entity in an append-only table.
// ID, Version and CreatedAt are assigned by the store on insert.
type Record struct {
	ID        types.VersionID `json:"id"`
	Table     string          `json:"table"`
	Key       Key             `json:"key"`
	Version   int64           `json:"version"`
	Active    bool            `json:"active"`
	Data      []byte          `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// Validate checks fields a caller must provide before insert
func (r *Record) Validate() error {
	if r.Table == "" {
		return goerr.New("record table cannot be empty")
	}
	if err := r.Key.Validate(); err != nil {
		return goerr.Wrap(err, "invalid record key", goerr.V("table", r.Table))
	}
	if len(r.Data) == 0 {
		return goerr.New("record data cannot be empty",
			goerr.V("table", r.Table),
			goerr.V("key", r.Key.String()))
	}
	return nil
}

// Copy returns a deep copy so stored rows cannot be modified through returned values
func (r *Record) Copy() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Key = append(Key(nil), r.Key...)
	c.Data = append([]byte(nil), r.Data...)
	return &c
}

// NextCreatedAt returns the creation time for a new version given the
// previous latest version. Time never moves backwards within a chain.
func NextCreatedAt(now time.Time, prev *Record) time.Time {
	if prev != nil && now.Before(prev.CreatedAt) {
		return prev.CreatedAt
	}
	return now
}

// NextVersion returns the version number following prev (1 for the first version)
func NextVersion(prev *Record) int64 {
	if prev == nil {
		return 1
	}
	return prev.Version + 1
}
