package constants

// DocStatus is the canonical lifecycle status for an ingested document.
type DocStatus string

// Stable values (store these exact strings in DB).
const (
	DocStatusReceived DocStatus = "RECEIVED" // intake done, files saved, nothing extracted yet
	DocStatusParsed   DocStatus = "PARSED"   // extraction + proposal populated
	DocStatusRouted   DocStatus = "ROUTED"   // journal and stock moves posted downstream
	DocStatusPosted   DocStatus = "POSTED"   // downstream ledger confirmed the proposal
)
