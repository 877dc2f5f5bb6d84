package store

import (
	"bytes"
	"encoding/json"

	"github.com/gnomegl/iceslurp/internal/models"
)

// Relationships maps each local account to the local followers discovered
// for it. An empty list means the account has not been expanded yet.
type Relationships struct {
	order     []models.AccountID
	followers map[models.AccountID][]models.AccountID
}

func NewRelationships() *Relationships {
	return &Relationships{
		followers: make(map[models.AccountID][]models.AccountID),
	}
}

func (r *Relationships) Has(id models.AccountID) bool {
	_, ok := r.followers[id]
	return ok
}

// Add records id with an empty follower list. It reports false when id was
// already present, leaving its list untouched.
func (r *Relationships) Add(id models.AccountID) bool {
	if r.Has(id) {
		return false
	}
	r.order = append(r.order, id)
	r.followers[id] = []models.AccountID{}
	return true
}

// Append adds followers to id's list in the given order. Entries already in
// the list are not filtered out.
func (r *Relationships) Append(id models.AccountID, followers ...models.AccountID) {
	r.Add(id)
	r.followers[id] = append(r.followers[id], followers...)
}

func (r *Relationships) Followers(id models.AccountID) []models.AccountID {
	return r.followers[id]
}

// Unexpanded lists accounts whose follower list is still empty, in
// insertion order.
func (r *Relationships) Unexpanded() []models.AccountID {
	var out []models.AccountID
	for _, id := range r.order {
		if len(r.followers[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

func (r *Relationships) IDs() []models.AccountID {
	out := make([]models.AccountID, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Relationships) Len() int {
	return len(r.order)
}

func (r *Relationships) EdgeCount() int {
	n := 0
	for _, followers := range r.followers {
		n += len(followers)
	}
	return n
}

func (r *Relationships) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range r.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(id))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := encodeIDList(&buf, r.followers[id]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Relationships) UnmarshalJSON(data []byte) error {
	fresh := NewRelationships()
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		followers, err := decodeIDList(raw)
		if err != nil {
			return err
		}
		id := models.AccountID(key)
		if fresh.Has(id) {
			// Repeated keys: the last list wins, the first position stays.
			fresh.followers[id] = followers
			return nil
		}
		fresh.Append(id, followers...)
		return nil
	})
	if err != nil {
		return err
	}
	*r = *fresh
	return nil
}
