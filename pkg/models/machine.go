package models

// Machine is an entry in the infrastructure registry: a lab box members can
// target, keyed by hostname.
type Machine struct {
	ID          int64  `json:"id"`
	Hostname    string `json:"hostname"`
	Description string `json:"description"`
}
