package models

// Account is the identity attached to an authenticated connection. Account
// records themselves live in the upstream identity service; we only carry the
// claims we need to attribute participants, messages and recordings.
type Account struct {
	ID     uint    `json:"id"`
	Name   string  `json:"name"`
	Nick   string  `json:"nick"`
	Avatar *string `json:"avatar"`
}

// Identity is what a connection presents to a room. AccountID is nil for
// unauthenticated guests.
type Identity struct {
	AccountID *uint  `json:"account_id"`
	Name      string `json:"name"`
}

func (v Identity) DisplayText() string {
	if len(v.Name) > 0 {
		return v.Name
	}
	return "Guest"
}
