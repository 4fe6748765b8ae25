package cursor

// Cursor is the highest stream watermark pair whose events have been fully
// applied to the ledger. The zero value means "start from the beginning of
// the feed" and only occurs before the first event was ever processed.
type Cursor struct {
	AddIndex    uint64 `json:"add_index"`
	SettleIndex uint64 `json:"settle_index"`
}

// Store persists the subscription resume point across restarts.
type Store interface {
	Load() (Cursor, error)
	// Save persists the cursor. Both watermarks are monotonically
	// non-decreasing: a save below the stored value is clamped per field,
	// never applied.
	Save(Cursor) error
}
