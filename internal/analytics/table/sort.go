package table

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type comparator func(col *collate.Collator, a, b *Record) int

// comparators enumerates the typed accessor for every sortable column.
var comparators = map[SortKey]comparator{
	SortName: func(col *collate.Collator, a, b *Record) int {
		return col.CompareString(a.Name, b.Name)
	},
	SortStatus: func(col *collate.Collator, a, b *Record) int {
		return col.CompareString(string(a.Status), string(b.Status))
	},
	SortBudget: func(_ *collate.Collator, a, b *Record) int {
		return a.Budget.Cmp(b.Budget)
	},
	SortSpent: func(_ *collate.Collator, a, b *Record) int {
		return a.Spent.Cmp(b.Spent)
	},
	SortConversions: func(_ *collate.Collator, a, b *Record) int {
		return cmp.Compare(a.Conversions, b.Conversions)
	},
	SortCTR: func(_ *collate.Collator, a, b *Record) int {
		return cmp.Compare(a.CTR, b.CTR)
	},
	SortROAS: func(_ *collate.Collator, a, b *Record) int {
		return cmp.Compare(a.ROAS, b.ROAS)
	},
}

type ranked struct {
	rec *Record
	idx int
}

// sortRecords returns a sorted copy of records. Ties keep their input order in
// both directions because the input index is the final tie-break.
func sortRecords(records []Record, key SortKey, dir Direction) []Record {
	compare, ok := comparators[key]
	if !ok || len(records) < 2 {
		return records
	}
	// Collators keep scratch buffers, so each sort owns one.
	col := collate.New(language.English)

	decorated := make([]ranked, len(records))
	for i := range records {
		decorated[i] = ranked{rec: &records[i], idx: i}
	}
	slices.SortFunc(decorated, func(a, b ranked) int {
		c := compare(col, a.rec, b.rec)
		if dir == Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.idx, b.idx)
	})

	out := make([]Record, len(decorated))
	for i, d := range decorated {
		out[i] = *d.rec
	}
	return out
}
