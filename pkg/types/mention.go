package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Tristate is an optional boolean that distinguishes an absent value from
// an explicit true or false.
type Tristate uint8

// Tristate values. The zero value is Unset.
const (
	Unset Tristate = iota
	True
	False
)

// Bool collapses the tristate: only an explicit False disables the flag.
func (t Tristate) Bool() bool {
	return t != False
}

// String returns "unset", "true" or "false".
func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unset"
	}
}

// MarshalJSON encodes Unset as null.
func (t Tristate) MarshalJSON() ([]byte, error) {
	switch t {
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts true, false and null. Any other value is an error.
func (t *Tristate) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*t = True
	case "false":
		*t = False
	case "null":
		*t = Unset
	default:
		return fmt.Errorf("tristate: invalid value %s", data)
	}
	return nil
}

// MentionProposal is the decoded payload of a mention transaction.
type MentionProposal struct {
	CID         string   `json:"cid"`
	Mentionable Tristate `json:"mentionable"`
	Owner       string   `json:"owner"`
}

// FinalMention is the authoritative mention record written to the store.
// Timestamp is unix milliseconds assigned when the record is built.
type FinalMention struct {
	Timestamp   uint64 `json:"timestamp"`
	Mentionable bool   `json:"mentionable"`
	Owner       string `json:"owner"`
}

// NewFinalMention builds the mention for p, stamped with now.
func NewFinalMention(p MentionProposal, now time.Time) FinalMention {
	return FinalMention{
		Timestamp:   uint64(now.UnixMilli()),
		Mentionable: p.Mentionable.Bool(),
		Owner:       p.Owner,
	}
}

// MentionMap tracks mentions per content identifier under one subject.
type MentionMap map[string]FinalMention

// Clone returns a shallow copy. A nil map clones to an empty map.
func (m MentionMap) Clone() MentionMap {
	out := make(MentionMap, len(m))
	maps.Copy(out, m)
	return out
}

// Lookup returns the mention stored for cid.
func (m MentionMap) Lookup(cid string) (FinalMention, bool) {
	fm, ok := m[cid]
	return fm, ok
}

// DecodeFinalMention decodes a single stored mention.
func DecodeFinalMention(raw json.RawMessage) (FinalMention, error) {
	var fm FinalMention
	if err := json.Unmarshal(raw, &fm); err != nil {
		return FinalMention{}, err
	}
	return fm, nil
}

// DecodeMentionMap decodes a stored per-subject mention map.
func DecodeMentionMap(raw json.RawMessage) (MentionMap, error) {
	var m MentionMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = MentionMap{}
	}
	return m, nil
}
