package constants

// DocStatus is the canonical status for a document in the run history.
type DocStatus string

// Stable values (store these exact strings in the history DB).
const (
	DocStatusLoaded    DocStatus = "LOADED"    // text extracted, not yet sent to the model
	DocStatusExtracted DocStatus = "EXTRACTED" // fields extracted and normalized
	DocStatusFailed    DocStatus = "FAILED"    // terminal failure for this document
)
