package artifact

// Deduplicator accumulates records into an ordered table.
//
// Rows are append-only; index maps a dedup key to the row that first
// introduced it. Replacements overwrite that row in place so row order always
// reflects first encounter.
type Deduplicator struct {
	rows  []Record
	index map[string]int
}

// NewDeduplicator creates an empty Deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{index: make(map[string]int)}
}

// Ingest adds rec to the table.
//
// With onlyLast disabled, or when the key is new, rec is appended. Otherwise
// rec replaces the row previously stored under its key, except that a row
// recorded as Add stays Add unless rec is a Delete.
func (d *Deduplicator) Ingest(rec Record, onlyLast bool) {
	key := rec.Key()

	pos, seen := d.index[key]
	if !onlyLast || !seen {
		d.rows = append(d.rows, rec)
		d.index[key] = len(d.rows) - 1

		return
	}

	if d.rows[pos].Change == Add && rec.Change != Delete {
		rec.Change = Add
	}

	d.rows[pos] = rec
}

// Len returns the number of rows in the table.
func (d *Deduplicator) Len() int {
	return len(d.rows)
}

// Rows returns a copy of the table in first-seen order.
func (d *Deduplicator) Rows() []Record {
	out := make([]Record, len(d.rows))
	copy(out, d.rows)

	return out
}
