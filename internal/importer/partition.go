package importer

// partition.go runs the row validator over a whole file and splits the
// result into a valid-records list and an invalid-rows list. Every input row
// lands in exactly one partition; malformed data never aborts the run.

import "github.com/crewdeck/roster/internal/roster"

// InvalidRow is a data row that failed validation.
// Row numbers are 1-based, counting from the first data row (header excluded).
type InvalidRow struct {
	Row    int               `json:"row"`
	Errors []ValidationError `json:"errors"`
	Values RawRow            `json:"values"`
}

// Partition is the outcome of validating every row of an upload.
type Partition struct {
	Valid   []roster.AthleteParams `json:"validRows"`
	Invalid []InvalidRow           `json:"invalidRows"`
}

// TotalRows returns the number of data rows the partition covers.
func (p Partition) TotalRows() int {
	return len(p.Valid) + len(p.Invalid)
}

// ValidateAll applies the row validator to every row in input order and
// partitions the results. Original order is preserved within each partition.
//
// The mapping precondition (required fields mapped) is checked up front and
// returned as an error; it is a property of the run, not of any row.
func ValidateAll(rows []RawRow, mapping ColumnMapping) (Partition, error) {
	if err := mapping.Validate(); err != nil {
		return Partition{}, err
	}

	var p Partition
	for i, raw := range rows {
		params, errs := ValidateRow(raw, mapping)
		if len(errs) > 0 {
			p.Invalid = append(p.Invalid, InvalidRow{
				Row:    i + 1,
				Errors: errs,
				Values: raw,
			})
			continue
		}
		p.Valid = append(p.Valid, params)
	}
	return p, nil
}
