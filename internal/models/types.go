package models

import "strconv"

// AccountID identifies a remote account. Numeric platform ids are carried
// as their decimal string so map keys never switch representation.
type AccountID string

func AccountIDFromInt(id int64) AccountID {
	return AccountID(strconv.FormatInt(id, 10))
}

// Int64 parses the id back into the platform's numeric form.
func (id AccountID) Int64() (int64, error) {
	return strconv.ParseInt(string(id), 10, 64)
}

func (id AccountID) String() string {
	return string(id)
}

type Account struct {
	ID       AccountID
	Handle   string
	Location string
}

type Post struct {
	Author Account
}
