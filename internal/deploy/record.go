package deploy

import (
	"encoding/json"
	"math/big"
	"time"
)

// Deployment is what the network reports for a confirmed contract creation.
type Deployment struct {
	Address     string
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
	GasPrice    *big.Int
}

// Entry is one completed step in a Record.
type Entry struct {
	Name        string        `json:"name"`
	Contract    string        `json:"contract"`
	Address     string        `json:"address"`
	TxHash      string        `json:"txHash,omitempty"`
	BlockNumber uint64        `json:"blockNumber,omitempty"`
	GasUsed     uint64        `json:"gasUsed,omitempty"`
	GasPrice    *big.Int      `json:"gasPrice,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
}

// Record maps step names to deployed addresses in completion order. Entries
// are only ever appended, and only by the orchestrator.
type Record struct {
	entries []Entry
	index   map[string]int
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{index: make(map[string]int)}
}

// Len returns the number of completed steps.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Address returns the address recorded for the named step.
func (r *Record) Address(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	i, ok := r.index[name]
	if !ok {
		return "", false
	}
	return r.entries[i].Address, true
}

// Entry returns the full entry recorded for the named step.
func (r *Record) Entry(name string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	i, ok := r.index[name]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Entries returns a copy of the entries in completion order.
func (r *Record) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Names returns the recorded step names in completion order.
func (r *Record) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// Addresses returns the record as a plain name → address map.
func (r *Record) Addresses() map[string]string {
	out := make(map[string]string, r.Len())
	for _, e := range r.Entries() {
		out[e.Name] = e.Address
	}
	return out
}

// MarshalJSON encodes the record as an ordered array of entries.
func (r *Record) MarshalJSON() ([]byte, error) {
	entries := r.Entries()
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(entries)
}

func (r *Record) append(e Entry) {
	r.index[e.Name] = len(r.entries)
	r.entries = append(r.entries, e)
}
