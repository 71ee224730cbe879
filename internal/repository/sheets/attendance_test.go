package sheets

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/spreadsheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = civil.Date{Year: 2024, Month: time.May, Day: 29}

func newTestRepo(t *testing.T) (*spreadsheet.MemoryClient, attendance.AttendanceRepository) {
	t.Helper()
	client := spreadsheet.NewMemoryClient()
	return client, NewAttendanceRepository(NewBook(client))
}

func tod(t *testing.T, s string) *clock.TimeOfDay {
	t.Helper()
	v, err := clock.ParseTime(s)
	require.NoError(t, err)
	return &v
}

func TestEnsureSegment_Idempotent(t *testing.T) {
	ctx := context.Background()
	client, repo := newTestRepo(t)

	require.NoError(t, repo.EnsureSegment(ctx, 2024))
	require.NoError(t, repo.EnsureSegment(ctx, 2024))

	// A second Book sees the segment through the client and leaves it alone.
	other := NewAttendanceRepository(NewBook(client))
	require.NoError(t, other.EnsureSegment(ctx, 2024))

	sheets, err := client.ListSheets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024"}, sheets)

	rows, err := client.Get(ctx, spreadsheet.Range("2024", "A:H"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, attendanceHeader, rows[0])
}

func TestEnsureSegment_RecoversFromConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	client, repo := newTestRepo(t)

	// Prime the cache, then create the sheet behind the Book's back.
	_, err := repo.Find(ctx, attendance.Employee{ID: "U1"}, testDate)
	require.NoError(t, err)
	require.NoError(t, client.AddSheet(ctx, "2024"))

	require.NoError(t, repo.EnsureSegment(ctx, 2024))
}

func TestFind_MissingSegment(t *testing.T) {
	_, repo := newTestRepo(t)
	rec, err := repo.Find(context.Background(), attendance.Employee{ID: "U1", Name: "Alice"}, testDate)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestAppendFindUpdate(t *testing.T) {
	ctx := context.Background()
	client, repo := newTestRepo(t)
	require.NoError(t, repo.EnsureSegment(ctx, 2024))

	alice := attendance.Employee{ID: "U1", Name: "Alice"}
	require.NoError(t, repo.Append(ctx, attendance.Attendance{
		EmployeeID:   alice.ID,
		EmployeeName: alice.Name,
		Date:         testDate,
		ClockIn:      tod(t, "7:30 AM"),
	}))

	rec, err := repo.Find(ctx, alice, testDate)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "7:30 AM", rec.ClockIn.String())
	assert.Nil(t, rec.ClockOut)

	ot := "02:00"
	require.NoError(t, repo.UpdateFields(ctx, alice, testDate, attendance.Patch{ClockOut: tod(t, "5:00 PM"), OvertimeHours: &ot}))

	rows, err := client.Get(ctx, spreadsheet.Range("2024", "A2:H2"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Alice", "05/29/2024", "7:30 AM", "5:00 PM", "", "02:00", "", "U1"}}, rows)

	ut := "01:00"
	require.NoError(t, repo.UpdateFields(ctx, alice, testDate, attendance.AdjustmentPatch(attendance.AdjustmentUndertime, ut)))
	g, err := client.Get(ctx, spreadsheet.Range("2024", "G2"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"01:00"}}, g)
}

func TestUpdateFields_NotFound(t *testing.T) {
	ctx := context.Background()
	_, repo := newTestRepo(t)
	require.NoError(t, repo.EnsureSegment(ctx, 2024))

	err := repo.UpdateFields(ctx, attendance.Employee{ID: "U1"}, testDate, attendance.Patch{})
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestFind_LegacyRowMatchesNameCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	client, repo := newTestRepo(t)
	require.NoError(t, repo.EnsureSegment(ctx, 2024))
	require.NoError(t, client.Append(ctx, spreadsheet.Range("2024", "A:H"), [][]string{
		{"alice smith", "05/29/2024", "8:00 AM"},
	}))

	rec, err := repo.Find(ctx, attendance.Employee{ID: "U1", Name: "Alice Smith"}, testDate)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "8:00 AM", rec.ClockIn.String())
	assert.Empty(t, rec.EmployeeID)

	rec, err = repo.Find(ctx, attendance.Employee{ID: "U2", Name: "Bob"}, testDate)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFind_DuplicateRowsFirstWins(t *testing.T) {
	ctx := context.Background()
	client, repo := newTestRepo(t)
	require.NoError(t, repo.EnsureSegment(ctx, 2024))
	require.NoError(t, client.Append(ctx, spreadsheet.Range("2024", "A:H"), [][]string{
		{"Alice", "05/29/2024", "8:00 AM", "", "", "", "", "U1"},
		{"Alice", "05/29/2024", "9:00 AM", "", "", "", "", "U1"},
	}))

	alice := attendance.Employee{ID: "U1", Name: "Alice"}
	rec, err := repo.Find(ctx, alice, testDate)
	require.NoError(t, err)
	assert.Equal(t, "8:00 AM", rec.ClockIn.String())

	require.NoError(t, repo.UpdateFields(ctx, alice, testDate, attendance.Patch{ClockOut: tod(t, "5:00 PM")}))
	rows, err := client.Get(ctx, spreadsheet.Range("2024", "C2:D3"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"8:00 AM", "5:00 PM"}, {"9:00 AM"}}, rows)
}

func TestListByDateAndEmployee(t *testing.T) {
	ctx := context.Background()
	_, repo := newTestRepo(t)

	alice := attendance.Employee{ID: "U1", Name: "Alice"}
	bob := attendance.Employee{ID: "U2", Name: "Bob"}
	dates := []civil.Date{
		{Year: 2023, Month: time.December, Day: 31},
		{Year: 2024, Month: time.January, Day: 1},
		{Year: 2024, Month: time.January, Day: 2},
	}
	for _, d := range dates {
		require.NoError(t, repo.EnsureSegment(ctx, d.Year))
		for _, e := range []attendance.Employee{alice, bob} {
			require.NoError(t, repo.Append(ctx, attendance.Attendance{EmployeeID: e.ID, EmployeeName: e.Name, Date: d, ClockIn: tod(t, "8:00")}))
		}
	}

	all, err := repo.ListByDate(ctx, clock.Range{From: dates[0], To: dates[1]})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Alice", all[0].EmployeeName)
	assert.Equal(t, dates[0], all[0].Date)
	assert.Equal(t, "Bob", all[3].EmployeeName)
	assert.Equal(t, dates[1], all[3].Date)

	mine, err := repo.ListByEmployee(ctx, bob, clock.Range{From: dates[0], To: dates[2]})
	require.NoError(t, err)
	require.Len(t, mine, 3)
	for _, rec := range mine {
		assert.Equal(t, "U2", rec.EmployeeID)
	}

	none, err := repo.ListByDate(ctx, clock.SingleDay(civil.Date{Year: 2025, Month: time.March, Day: 3}))
	require.NoError(t, err)
	assert.Empty(t, none)
}

type countingClient struct {
	*spreadsheet.MemoryClient
	listSheets int
}

func (c *countingClient) ListSheets(ctx context.Context) ([]string, error) {
	c.listSheets++
	return c.MemoryClient.ListSheets(ctx)
}

func TestList_RefreshesSheetListOnce(t *testing.T) {
	ctx := context.Background()
	client := &countingClient{MemoryClient: spreadsheet.NewMemoryClient()}
	repo := NewAttendanceRepository(NewBook(client))

	alice := attendance.Employee{ID: "U1", Name: "Alice"}
	require.NoError(t, repo.EnsureSegment(ctx, 2024))
	require.NoError(t, repo.Append(ctx, attendance.Attendance{EmployeeID: alice.ID, EmployeeName: alice.Name, Date: testDate, ClockIn: tod(t, "8:00")}))
	client.listSheets = 0

	// Only 2024 exists; the other years cost no extra listing.
	r := clock.Range{From: civil.Date{Year: 2014, Month: time.January, Day: 1}, To: civil.Date{Year: 2030, Month: time.December, Day: 31}}
	recs, err := repo.ListByEmployee(ctx, alice, r)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, client.listSheets)

	recs, err = repo.ListByDate(ctx, r)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, 2, client.listSheets)
}
