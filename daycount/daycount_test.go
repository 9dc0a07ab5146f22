package daycount_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/qlgo/daycount"
	"github.com/meenmo/qlgo/utils"
)

func TestYearFraction(t *testing.T) {
	t.Parallel()

	start := utils.MustDate(2024, 1, 31)
	end := utils.MustDate(2024, 7, 31)

	cases := []struct {
		dc   daycount.DayCounter
		days int
		want float64
	}{
		{daycount.Actual365Fixed{}, 182, 182.0 / 365.0},
		{daycount.Actual360{}, 182, 182.0 / 360.0},
		{daycount.Thirty360{}, 180, 0.5},
		{daycount.ActualActualISDA{}, 182, 182.0 / 366.0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.days, tc.dc.DayCount(start, end), tc.dc.Name())
		assert.InDelta(t, tc.want, tc.dc.YearFraction(start, end), 1e-14, tc.dc.Name())
	}
}

func TestActualActualISDA_SpansYears(t *testing.T) {
	t.Parallel()

	dc := daycount.ActualActualISDA{}
	got := dc.YearFraction(utils.MustDate(2023, 7, 1), utils.MustDate(2024, 7, 1))
	want := 184.0/365.0 + 182.0/366.0
	assert.InDelta(t, want, got, 1e-14)
	assert.InDelta(t, -want, dc.YearFraction(utils.MustDate(2024, 7, 1), utils.MustDate(2023, 7, 1)), 1e-14)
}

func TestParse(t *testing.T) {
	t.Parallel()

	dc, err := daycount.Parse(" act/365f ")
	require.NoError(t, err)
	assert.Equal(t, "Actual/365 (Fixed)", dc.Name())

	_, err = daycount.Parse("BUS/252")
	assert.Error(t, err)
}
