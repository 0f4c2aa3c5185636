package ingest

import "github.com/google/uuid"

// Upload carries one uploaded statement file through the ingest pipeline.
type Upload struct {
	Filename   string
	Content    []byte
	ActorID    int64
	AutoAccept bool
}

// RowError reports one rejected row. Row is the 1-based position in the
// uploaded file, counting the header as row 1.
type RowError struct {
	Row     int               `json:"row"`
	Message string            `json:"message"`
	Raw     map[string]string `json:"raw,omitempty"`
}

// BatchResult summarizes one import run. Row failures never abort the
// batch; they accumulate here instead.
type BatchResult struct {
	BatchID uuid.UUID  `json:"batch_id"`
	Total   int        `json:"total"`
	Success int        `json:"success"`
	Failed  int        `json:"failed"`
	Unique  int        `json:"unique"`
	Merged  int        `json:"merged"`
	Errors  []RowError `json:"errors,omitempty"`
}
