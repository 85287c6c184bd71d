package auction

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMinimumNextBid(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		current  string
		interval string
		hasBids  bool
		want     string
	}{
		{"first bid may match starting price", "100", "0", "5", false, "100"},
		{"adds one interval to current bid", "100", "120", "5", true, "125"},
		{"fractional interval", "10.00", "10.50", "0.25", true, "10.75"},
		{"ignores starting price once bid", "100", "100", "10", true, "110"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MinimumNextBid(d(tt.start), d(tt.current), d(tt.interval), tt.hasBids)
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestBidSteps(t *testing.T) {
	steps := BidSteps(d("125"), d("5"), 4)
	assert.Len(t, steps, 4)
	for i, want := range []string{"125", "130", "135", "140"} {
		assert.True(t, steps[i].Equal(d(want)), "step %d: got %s", i, steps[i])
	}
	assert.Nil(t, BidSteps(d("1"), d("1"), 0))
}

func TestBidMeetsMinimum(t *testing.T) {
	assert.True(t, BidMeetsMinimum(d("125"), d("125")))
	assert.True(t, BidMeetsMinimum(d("125.01"), d("125")))
	assert.False(t, BidMeetsMinimum(d("124.99"), d("125")))
}

func TestCommissionAndTotal(t *testing.T) {
	tests := []struct {
		amount, rate, commission, total string
	}{
		{"100", "5", "5", "105"},
		{"125.50", "7.5", "9.41", "134.91"},
		{"0.10", "5", "0.01", "0.11"},
		{"999.99", "0", "0", "999.99"},
		{"10", "2.5", "0.25", "10.25"},
	}
	for _, tt := range tests {
		t.Run(tt.amount+"@"+tt.rate, func(t *testing.T) {
			c := Commission(d(tt.amount), d(tt.rate))
			total := TotalPayable(d(tt.amount), d(tt.rate))
			assert.True(t, c.Equal(d(tt.commission)), "commission got %s", c)
			assert.True(t, total.Equal(d(tt.total)), "total got %s", total)
		})
	}
}

func TestHasMoneyScale(t *testing.T) {
	assert.True(t, HasMoneyScale(d("10")))
	assert.True(t, HasMoneyScale(d("10.25")))
	assert.True(t, HasMoneyScale(d("10.250")))
	assert.False(t, HasMoneyScale(d("10.255")))
}

func TestCountdownTo(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("splits remaining time", func(t *testing.T) {
		end := now.Add(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second + 600*time.Millisecond)
		c := CountdownTo(end, now)
		assert.Equal(t, Countdown{Days: 2, Hours: 3, Minutes: 4, Seconds: 5, TotalSeconds: 183845}, c)
	})

	t.Run("expired when end passed", func(t *testing.T) {
		c := CountdownTo(now.Add(-time.Minute), now)
		assert.True(t, c.Expired)
		assert.Zero(t, c.TotalSeconds)
	})

	t.Run("expired exactly at end", func(t *testing.T) {
		assert.True(t, CountdownTo(now, now).Expired)
	})
}
