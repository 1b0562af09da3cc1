package yieldcalc

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"micropaper-backend/internal/pkg/apperror"
)

// Interest accrues on a 360-day year (commercial paper convention); APY is
// annualized on a 365-day year. The mismatch is the market convention, not
// a bug.
const (
	interestDayBase = 360
	apyDayBase      = 365
	bpsPerUnit      = 10000
)

// MaturityValue returns principal plus simple interest in whole cents,
// rounded down so the issuer never owes more than the contractual amount.
func MaturityValue(principalCents, rateBps, daysToMaturity int64) (int64, error) {
	if principalCents <= 0 {
		return 0, apperror.New(apperror.KindInvalidInput, "principal must be a positive amount in cents")
	}
	if rateBps < 0 {
		return 0, apperror.New(apperror.KindInvalidInput, "interest rate cannot be negative")
	}
	if daysToMaturity <= 0 {
		return 0, apperror.New(apperror.KindInvalidInput, "days to maturity must be positive")
	}

	// interest = principal * rateBps * days / (10000 * 360), floored.
	// QuoRem with precision 0 gives the exact integer quotient; no binary
	// floating point is involved at any step.
	numerator := decimal.NewFromInt(principalCents).
		Mul(decimal.NewFromInt(rateBps)).
		Mul(decimal.NewFromInt(daysToMaturity))
	denominator := decimal.NewFromInt(bpsPerUnit * interestDayBase)
	interest, _ := numerator.QuoRem(denominator, 0)

	return principalCents + interest.IntPart(), nil
}

// APY returns the annualized percentage yield rounded to two decimal
// places: ((maturity/principal) - 1) * (365/days) * 100.
func APY(principalCents, maturityValueCents, daysToMaturity int64) (float64, error) {
	if principalCents <= 0 {
		return 0, apperror.New(apperror.KindInvalidInput, "principal must be a positive amount in cents")
	}
	if maturityValueCents < principalCents {
		return 0, apperror.New(apperror.KindInvalidInput, "maturity value cannot be below principal")
	}
	if daysToMaturity <= 0 {
		return 0, apperror.New(apperror.KindInvalidInput, "days to maturity must be positive")
	}

	gain := decimal.NewFromInt(maturityValueCents - principalCents).
		Mul(decimal.NewFromInt(apyDayBase * 100))
	base := decimal.NewFromInt(principalCents).
		Mul(decimal.NewFromInt(daysToMaturity))
	apy := gain.Div(base).Round(2)

	return apy.InexactFloat64(), nil
}

// FromRate computes (maturityValueCents, apy) from a rate and the note's
// issue/maturity dates. A maturity on or before the issue date yields the
// principal unchanged and a zero APY, so listings of matured notes render
// without erroring.
func FromRate(principalCents, rateBps int64, issuedAt, maturityDate time.Time) (int64, float64, error) {
	if principalCents <= 0 {
		return 0, 0, apperror.New(apperror.KindInvalidInput, "principal must be a positive amount in cents")
	}
	days := int64(maturityDate.Sub(issuedAt).Hours() / 24)
	if days <= 0 {
		return principalCents, 0, nil
	}

	maturityValue, err := MaturityValue(principalCents, rateBps, days)
	if err != nil {
		return 0, 0, err
	}
	apy, err := APY(principalCents, maturityValue, days)
	if err != nil {
		return 0, 0, err
	}
	return maturityValue, apy, nil
}

// FormatCents renders cents as a dollar string, e.g. 1012500 -> "$10,125.00".
func FormatCents(cents int64) string {
	d := decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
	whole := d.IntPart()
	frac := d.Sub(decimal.NewFromInt(whole)).Abs().Mul(decimal.NewFromInt(100)).IntPart()
	return fmt.Sprintf("$%s.%02d", groupThousands(whole), frac)
}

// FormatBps renders basis points as a percentage string, e.g. 500 -> "5.00%".
func FormatBps(bps int64) string {
	pct := decimal.NewFromInt(bps).Div(decimal.NewFromInt(100))
	return pct.StringFixed(2) + "%"
}

func groupThousands(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return sign + s
}
