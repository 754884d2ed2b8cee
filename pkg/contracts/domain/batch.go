package domain

// Batch is one already-parsed tabular batch of raw exam records: an ordered
// column list plus string-valued rows. File discovery, delimiter detection
// and cell decoding happen upstream; the canonicalizer only resolves column
// vocabulary and value semantics.
type Batch struct {
	Source  string     `json:"source,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}
