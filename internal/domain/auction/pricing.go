package auction

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places prices are kept at
const MoneyScale int32 = 2

var hundred = decimal.NewFromInt(100)

// MinimumNextBid returns the lowest acceptable bid. With no bids yet the
// starting price itself may be bid, afterwards every bid must add at least
// one interval on top of the current bid.
func MinimumNextBid(startingPrice, currentBid, interval decimal.Decimal, hasBids bool) decimal.Decimal {
	if !hasBids {
		return startingPrice.Round(MoneyScale)
	}
	return currentBid.Add(interval).Round(MoneyScale)
}

// BidSteps lists the next n valid amounts starting at the minimum and
// moving up one interval at a time.
func BidSteps(minimum, interval decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}
	steps := make([]decimal.Decimal, n)
	for i := 0; i < n; i++ {
		steps[i] = minimum.Add(interval.Mul(decimal.NewFromInt(int64(i)))).Round(MoneyScale)
	}
	return steps
}

// BidMeetsMinimum reports whether amount is at least the minimum next bid
func BidMeetsMinimum(amount, minimum decimal.Decimal) bool {
	return amount.Round(MoneyScale).GreaterThanOrEqual(minimum.Round(MoneyScale))
}

// Commission returns the service fee for amount at ratePercent (e.g. 5 for 5%)
func Commission(amount, ratePercent decimal.Decimal) decimal.Decimal {
	return amount.Mul(ratePercent).Div(hundred).Round(MoneyScale)
}

// TotalPayable is what the buyer owes if the bid wins: bid plus commission
func TotalPayable(amount, ratePercent decimal.Decimal) decimal.Decimal {
	return amount.Add(Commission(amount, ratePercent)).Round(MoneyScale)
}

// HasMoneyScale reports whether d has no more than two decimal places
func HasMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

// Countdown is the time left until an auction closes, split for display
type Countdown struct {
	Days         int   `json:"days"`
	Hours        int   `json:"hours"`
	Minutes      int   `json:"minutes"`
	Seconds      int   `json:"seconds"`
	TotalSeconds int64 `json:"total_seconds"`
	Expired      bool  `json:"expired"`
}

// CountdownTo computes the countdown from now until end. It never goes negative.
func CountdownTo(end, now time.Time) Countdown {
	remaining := end.Sub(now)
	if remaining <= 0 {
		return Countdown{Expired: true}
	}
	total := int64(remaining / time.Second)
	return Countdown{
		Days:         int(total / 86400),
		Hours:        int(total % 86400 / 3600),
		Minutes:      int(total % 3600 / 60),
		Seconds:      int(total % 60),
		TotalSeconds: total,
	}
}

// Quote bundles the price figures shown next to a bid form
type Quote struct {
	MinimumNextBid decimal.Decimal   `json:"minimum_next_bid"`
	Steps          []decimal.Decimal `json:"steps"`
	Amount         decimal.Decimal   `json:"amount"`
	CommissionRate decimal.Decimal   `json:"commission_rate"`
	Commission     decimal.Decimal   `json:"commission"`
	TotalPayable   decimal.Decimal   `json:"total_payable"`
	Countdown      Countdown         `json:"countdown"`
	AcceptsBids    bool              `json:"accepts_bids"`
}
