package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gnomegl/iceslurp/internal/models"
)

const foreignersField = "foreigners"

// Foreigners is the set of accounts already classified as not local.
// It only grows.
type Foreigners struct {
	order []models.AccountID
	set   map[models.AccountID]struct{}
}

func NewForeigners() *Foreigners {
	return &Foreigners{set: make(map[models.AccountID]struct{})}
}

func (f *Foreigners) Contains(id models.AccountID) bool {
	_, ok := f.set[id]
	return ok
}

func (f *Foreigners) Insert(id models.AccountID) bool {
	if f.Contains(id) {
		return false
	}
	f.set[id] = struct{}{}
	f.order = append(f.order, id)
	return true
}

func (f *Foreigners) IDs() []models.AccountID {
	out := make([]models.AccountID, len(f.order))
	copy(out, f.order)
	return out
}

func (f *Foreigners) Len() int {
	return len(f.order)
}

func (f *Foreigners) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"` + foreignersField + `":`)
	if err := encodeIDList(&buf, f.order); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (f *Foreigners) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("expected a JSON object, got null")
	}
	raw, ok := doc[foreignersField]
	if !ok {
		return fmt.Errorf("missing %q field", foreignersField)
	}
	ids, err := decodeIDList(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", foreignersField, err)
	}

	fresh := NewForeigners()
	for _, id := range ids {
		fresh.Insert(id)
	}
	*f = *fresh
	return nil
}
