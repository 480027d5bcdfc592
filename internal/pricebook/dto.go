package pricebook

// RowError records a single skipped input row.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportResult is the aggregate outcome of one file import. Per-row
// failures are reported here, never fatal to the whole file.
type ImportResult struct {
	Filename      string     `json:"filename"`
	UploadID      int64      `json:"upload_id"`
	RowsRead      int        `json:"rows_read"`
	ItemsImported int        `json:"items_imported"`
	RatesImported int        `json:"rates_imported"`
	Errors        []RowError `json:"errors,omitempty"`
	Warnings      []string   `json:"warnings,omitempty"`
}

type SearchRequest struct {
	Query  string `json:"q"`
	Sheet  string `json:"sheet,omitempty"`
	Limit  int    `json:"limit" validate:"gte=0,lte=500"`
	Offset int    `json:"offset" validate:"gte=0"`
}

// SearchResult is a catalog item flattened with its hierarchy names and
// all tier rates.
type SearchResult struct {
	Item
	Category string `json:"category"`
	Sheet    string `json:"sheet"`
}
