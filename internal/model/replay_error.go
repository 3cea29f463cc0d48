package model

// ReplayError records a journal entry that could not be replayed or whose
// replayed events differ from the journaled ones.
type ReplayError struct {
	Seq   uint64 `json:"seq"`
	Kind  string `json:"kind"`
	Op    string `json:"op,omitempty"`
	Error string `json:"error"`
}
