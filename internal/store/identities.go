package store

import (
	"bytes"
	"encoding/json"

	"github.com/gnomegl/iceslurp/internal/models"
)

// Identities maps local account ids to their display handle.
type Identities struct {
	order   []models.AccountID
	handles map[models.AccountID]string
}

func NewIdentities() *Identities {
	return &Identities{handles: make(map[models.AccountID]string)}
}

// Set records or replaces the handle for id. Handles can be renamed
// upstream, the latest observation wins.
func (m *Identities) Set(id models.AccountID, handle string) {
	if _, ok := m.handles[id]; !ok {
		m.order = append(m.order, id)
	}
	m.handles[id] = handle
}

func (m *Identities) Handle(id models.AccountID) (string, bool) {
	h, ok := m.handles[id]
	return h, ok
}

func (m *Identities) IDs() []models.AccountID {
	out := make([]models.AccountID, len(m.order))
	copy(out, m.order)
	return out
}

func (m *Identities) Len() int {
	return len(m.order)
}

func (m *Identities) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range m.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(id))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.handles[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *Identities) UnmarshalJSON(data []byte) error {
	fresh := NewIdentities()
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		var handle string
		if err := json.Unmarshal(raw, &handle); err != nil {
			return err
		}
		fresh.Set(models.AccountID(key), handle)
		return nil
	})
	if err != nil {
		return err
	}
	*m = *fresh
	return nil
}
