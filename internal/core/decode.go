package core

import "strings"

// DecodeRows interprets the raw rows of one collection.
//
// Rows whose date cannot be parsed are left out and reported as skipped;
// they are never given a default date. Rows outside w are dropped. A row
// whose amount cannot be parsed fails the whole collection with an
// *IntegrityError, since a partial total that looks complete hides the fault.
func DecodeRows(kind Kind, rows []Row, w Window) ([]Transaction, []SkippedRecord, error) {
	txns := make([]Transaction, 0, len(rows))
	var skipped []SkippedRecord

	for _, r := range rows {
		date, err := parseStoredDate(r.Date)
		if err != nil {
			skipped = append(skipped, SkippedRecord{Kind: kind, RecordID: r.ID, Field: "date", Value: r.Date})
			continue
		}
		if !w.Contains(date) {
			continue
		}

		amount, err := ParseAmount(r.Amount)
		if err != nil {
			return nil, nil, &IntegrityError{Kind: kind, RecordID: r.ID, Field: "amount", Value: r.Amount, Err: err}
		}

		category := r.Category
		if strings.TrimSpace(category) == "" {
			category = Uncategorized
		}

		txns = append(txns, Transaction{
			ID:          r.ID,
			Kind:        kind,
			Date:        date,
			Category:    category,
			Amount:      amount,
			Description: r.Description,
			Username:    r.Username,
		})
	}

	return txns, skipped, nil
}
