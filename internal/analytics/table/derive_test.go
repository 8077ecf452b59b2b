package table

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id int64, name string, status Status, budget int64) Record {
	return Record{ID: id, Name: name, Status: status, Budget: decimal.NewFromInt(budget)}
}

func names(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

func numbered(n int) []Record {
	out := make([]Record, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, rec(int64(i), fmt.Sprintf("Campaign %02d", i), StatusActive, int64(i*100)))
	}
	return out
}

func TestDeriveStatusFilterAndBudgetSort(t *testing.T) {
	records := []Record{
		rec(1, "Zeta", StatusActive, 100),
		rec(2, "Alpha", StatusPaused, 200),
		rec(3, "Mid", StatusActive, 150),
	}
	params := ViewParameters{Status: StatusActive, SortKey: SortBudget, Direction: Ascending, Page: 1, PageSize: 10}

	result, err := Derive(records, params)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zeta", "Mid"}, names(result.Records))
	assert.Equal(t, 2, result.TotalMatched)
	assert.Equal(t, 1, result.PageCount)
	assert.True(t, result.Records[0].Budget.Equal(decimal.NewFromInt(100)))
	assert.True(t, result.Records[1].Budget.Equal(decimal.NewFromInt(150)))
}

func TestDeriveClampsStalePage(t *testing.T) {
	records := numbered(12)
	result, err := Derive(records, ViewParameters{Status: StatusAll, Page: 10, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 3, result.PageCount)
	assert.Equal(t, 3, result.Page)
	assert.Equal(t, names(records[10:12]), names(result.Records))
}

func TestDeriveEmptyResultHasOnePage(t *testing.T) {
	result, err := Derive(numbered(4), ViewParameters{Search: "nothing matches", Status: StatusAll, Page: 3, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalMatched)
	assert.Equal(t, 1, result.PageCount)
	assert.Equal(t, 1, result.Page)
	assert.Empty(t, result.Records)
}

func TestDeriveRejectsNonPositivePageSize(t *testing.T) {
	for _, size := range []int{0, -3} {
		_, err := Derive(numbered(3), ViewParameters{Status: StatusAll, Page: 1, PageSize: size})
		assert.ErrorIs(t, err, ErrInvalidPageSize)
	}
}

func TestDeriveSearchIsCaseInsensitiveSubstring(t *testing.T) {
	records := []Record{
		rec(1, "Summer Sale 2024", StatusActive, 1),
		rec(2, "Black Friday Mega Sale", StatusActive, 1),
		rec(3, "Spring Launch", StatusActive, 1),
	}
	result, err := Derive(records, ViewParameters{Search: "SALE", Status: StatusAll, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"Summer Sale 2024", "Black Friday Mega Sale"}, names(result.Records))
}

func TestDeriveUnknownStatusMatchesAll(t *testing.T) {
	records := numbered(3)
	result, err := Derive(records, ViewParameters{Status: Status("Archived"), Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalMatched)
}

func TestDeriveUnknownSortKeyLeavesOrder(t *testing.T) {
	records := []Record{
		rec(1, "b", StatusActive, 3),
		rec(2, "a", StatusActive, 1),
		rec(3, "c", StatusActive, 2),
	}
	result, err := Derive(records, ViewParameters{Status: StatusAll, SortKey: SortKey("color"), Direction: Descending, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, names(result.Records))
}

func TestDeriveNameSortIsLocaleAware(t *testing.T) {
	records := []Record{
		rec(1, "cherry", StatusActive, 1),
		rec(2, "Banana", StatusActive, 1),
		rec(3, "apple", StatusActive, 1),
	}
	result, err := Derive(records, ViewParameters{Status: StatusAll, SortKey: SortName, Direction: Ascending, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "Banana", "cherry"}, names(result.Records))

	result, err = Derive(records, ViewParameters{Status: StatusAll, SortKey: SortName, Direction: Descending, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"cherry", "Banana", "apple"}, names(result.Records))
}

func TestDeriveSortIsStableInBothDirections(t *testing.T) {
	records := []Record{
		rec(1, "A", StatusActive, 500),
		rec(2, "B", StatusActive, 100),
		rec(3, "C", StatusActive, 500),
		rec(4, "D", StatusActive, 100),
		rec(5, "E", StatusActive, 500),
	}
	asc, err := Derive(records, ViewParameters{Status: StatusAll, SortKey: SortBudget, Direction: Ascending, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "D", "A", "C", "E"}, names(asc.Records))

	desc, err := Derive(records, ViewParameters{Status: StatusAll, SortKey: SortBudget, Direction: Descending, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "E", "B", "D"}, names(desc.Records))
}

func TestDeriveNumericColumns(t *testing.T) {
	records := []Record{
		{ID: 1, Name: "x", Status: StatusActive, Spent: decimal.RequireFromString("12.5"), Conversions: 30, CTR: 2.8, ROAS: 4.1},
		{ID: 2, Name: "y", Status: StatusActive, Spent: decimal.RequireFromString("7"), Conversions: 10, CTR: 3.9, ROAS: 3.5},
		{ID: 3, Name: "z", Status: StatusActive, Spent: decimal.RequireFromString("100"), Conversions: 20, CTR: 0, ROAS: 5.2},
	}
	cases := map[SortKey][]string{
		SortSpent:       {"y", "x", "z"},
		SortConversions: {"y", "z", "x"},
		SortCTR:         {"z", "x", "y"},
		SortROAS:        {"y", "x", "z"},
	}
	for key, want := range cases {
		result, err := Derive(records, ViewParameters{Status: StatusAll, SortKey: key, Direction: Ascending, Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, want, names(result.Records), "sort by %s", key)
	}
}

func TestDeriveIsIdempotentAndDoesNotMutateInput(t *testing.T) {
	records := []Record{
		rec(1, "Zeta", StatusActive, 300),
		rec(2, "Alpha", StatusPaused, 200),
		rec(3, "Mid", StatusActive, 100),
	}
	before := names(records)
	params := ViewParameters{Status: StatusAll, SortKey: SortBudget, Direction: Ascending, Page: 1, PageSize: 2}

	first, err := Derive(records, params)
	require.NoError(t, err)
	second, err := Derive(records, params)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, names(records))
}

func TestDeriveFilterResultIsSubsetOfInput(t *testing.T) {
	records := numbered(12)
	ids := make(map[int64]bool, len(records))
	for _, r := range records {
		ids[r.ID] = true
	}
	for _, search := range []string{"", "1", "campaign 0", "zzz", "CAMPAIGN"} {
		result, err := Derive(records, ViewParameters{Search: search, Status: StatusAll, Page: 1, PageSize: len(records)})
		require.NoError(t, err)
		assert.LessOrEqual(t, result.TotalMatched, len(records))
		for _, r := range result.Records {
			assert.True(t, ids[r.ID], "search %q produced foreign record %d", search, r.ID)
		}
	}
}

func TestDerivePagesConcatenateToFullSequence(t *testing.T) {
	records := numbered(12)
	full, err := Derive(records, ViewParameters{Status: StatusAll, SortKey: SortName, Direction: Descending, Page: 1, PageSize: 100})
	require.NoError(t, err)

	params := ViewParameters{Status: StatusAll, SortKey: SortName, Direction: Descending, Page: 1, PageSize: 5}
	first, err := Derive(records, params)
	require.NoError(t, err)

	var joined []Record
	for page := 1; page <= first.PageCount; page++ {
		params.Page = page
		result, err := Derive(records, params)
		require.NoError(t, err)
		joined = append(joined, result.Records...)
	}
	assert.Equal(t, names(full.Records), names(joined))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, PageSummary{From: 11, To: 12, Total: 12}, Summary(ViewResult{TotalMatched: 12, PageCount: 3, Page: 3}, 5))
	assert.Equal(t, PageSummary{From: 1, To: 5, Total: 12}, Summary(ViewResult{TotalMatched: 12, PageCount: 3, Page: 1}, 5))
	assert.Equal(t, PageSummary{}, Summary(ViewResult{PageCount: 1, Page: 1}, 5))
}

func TestStatusesKeepsFirstSeenOrder(t *testing.T) {
	records := []Record{
		rec(1, "a", StatusPaused, 1),
		rec(2, "b", StatusActive, 1),
		rec(3, "c", StatusPaused, 1),
		rec(4, "d", StatusDraft, 1),
	}
	assert.Equal(t, []Status{StatusPaused, StatusActive, StatusDraft}, Statuses(records))
}
