package receipt

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	pointsRoundTotal   = 50
	pointsQuarterTotal = 25
	pointsPerItemPair  = 5
	pointsLargeTotal   = 5
	pointsOddDay       = 6
	pointsAfternoon    = 10

	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	// [14:00, 16:00) in minutes after midnight.
	afternoonStart = 14 * 60
	afternoonEnd   = 16 * 60

	maxItemBonus = math.MaxInt32
)

var (
	quarter         = decimal.RequireFromString("0.25")
	descriptionRate = decimal.RequireFromString("0.2")
	largeTotalFloor = decimal.NewFromInt(10)

	// Plain non-negative decimal text. Exponents and signs are rejected so a
	// hostile payload cannot force huge intermediate values.
	amountPattern = regexp.MustCompile(`^[0-9]{1,15}(\.[0-9]{1,6})?$`)

	errAmountFormat = errors.New("not a non-negative decimal amount")

	maxBonus = decimal.NewFromInt(maxItemBonus)
)

// Breakdown is the contribution of every rule to a receipt's points.
type Breakdown struct {
	Retailer     int `json:"retailer"`
	RoundTotal   int `json:"roundTotal"`
	QuarterTotal int `json:"quarterTotal"`
	ItemPairs    int `json:"itemPairs"`
	Descriptions int `json:"descriptions"`
	LargeTotal   int `json:"largeTotal"`
	OddDay       int `json:"oddDay"`
	Afternoon    int `json:"afternoon"`

	// Skipped lists fields that failed to parse; their rules scored 0.
	Skipped []*FieldParseError `json:"-"`
}

func (b Breakdown) Total() int {
	return b.Retailer + b.RoundTotal + b.QuarterTotal + b.ItemPairs +
		b.Descriptions + b.LargeTotal + b.OddDay + b.Afternoon
}

// CalculatePoints scores a receipt. It is pure and never fails; fields that
// do not parse simply contribute nothing.
func CalculatePoints(r Receipt) int {
	return Calculate(r).Total()
}

// Calculate scores each rule independently and reports which fields were
// skipped.
func Calculate(r Receipt) Breakdown {
	var b Breakdown

	b.Retailer = alphanumericCount(r.Retailer)

	if total, err := parseAmount("total", r.Total); err != nil {
		b.Skipped = append(b.Skipped, err)
	} else {
		if total.Equal(total.Floor()) {
			b.RoundTotal = pointsRoundTotal
		}
		if total.Mod(quarter).IsZero() {
			b.QuarterTotal = pointsQuarterTotal
		}
		if total.GreaterThan(largeTotalFloor) {
			b.LargeTotal = pointsLargeTotal
		}
	}

	b.ItemPairs = (len(r.Items) / 2) * pointsPerItemPair

	for i, it := range r.Items {
		bonus, err := descriptionBonus(i, it)
		if err != nil {
			b.Skipped = append(b.Skipped, err)
			continue
		}
		b.Descriptions += bonus
	}

	if day, err := time.Parse(dateLayout, r.PurchaseDate); err != nil {
		b.Skipped = append(b.Skipped, &FieldParseError{Field: "purchaseDate", Value: r.PurchaseDate, Err: err})
	} else if day.Day()%2 == 1 {
		b.OddDay = pointsOddDay
	}

	if at, err := time.Parse(timeLayout, r.PurchaseTime); err != nil {
		b.Skipped = append(b.Skipped, &FieldParseError{Field: "purchaseTime", Value: r.PurchaseTime, Err: err})
	} else if m := at.Hour()*60 + at.Minute(); m >= afternoonStart && m < afternoonEnd {
		b.Afternoon = pointsAfternoon
	}

	return b
}

// alphanumericCount counts ASCII letters and digits only.
func alphanumericCount(s string) int {
	n := 0
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			n++
		}
	}
	return n
}

// descriptionBonus awards ceil(price * 0.2) when the trimmed description has
// a positive length divisible by 3, capped at maxItemBonus so item sums
// cannot overflow. The price is only parsed when the description qualifies.
func descriptionBonus(idx int, it Item) (int, *FieldParseError) {
	n := utf8.RuneCountInString(strings.TrimSpace(it.ShortDescription))
	if n == 0 || n%3 != 0 {
		return 0, nil
	}

	field := "items[" + strconv.Itoa(idx) + "].price"
	price, err := parseAmount(field, it.Price)
	if err != nil {
		return 0, err
	}

	bonus := decimal.Min(price.Mul(descriptionRate).Ceil(), maxBonus)
	return int(bonus.IntPart()), nil
}

func parseAmount(field, s string) (decimal.Decimal, *FieldParseError) {
	if !amountPattern.MatchString(s) {
		return decimal.Zero, &FieldParseError{Field: field, Value: s, Err: errAmountFormat}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &FieldParseError{Field: field, Value: s, Err: err}
	}
	return d, nil
}
