package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NightCharge is the price of a single night of a stay
type NightCharge struct {
	Date       Date            `json:"date"`
	Price      decimal.Decimal `json:"price"`
	Overridden bool            `json:"overridden"`
}

// PricingResult is the price breakdown of a stay.
// Total always equals NightlySubtotal + ServiceFee exactly.
type PricingResult struct {
	Currency        string          `json:"currency"`
	Nights          []NightCharge   `json:"nights"`
	NightlySubtotal decimal.Decimal `json:"nightly_subtotal"`
	ServiceFeeRate  decimal.Decimal `json:"service_fee_rate"`
	ServiceFee      decimal.Decimal `json:"service_fee"`
	Total           decimal.Decimal `json:"total"`
}

// NightCount returns the number of priced nights
func (p PricingResult) NightCount() int {
	return len(p.Nights)
}

// CalculatePrice prices the nights of r at base per night, honoring per-date price
// overrides, and adds a service fee of feeRate rounded half-up to the currency's
// minor unit. r must already have passed ValidateDateRange.
func CalculatePrice(r DateRange, base Money, overrides []AvailabilityOverride, feeRate decimal.Decimal) (PricingResult, error) {
	return IndexOverrides(overrides).Price(r, base, feeRate)
}

// Price is CalculatePrice against an already indexed override snapshot
func (idx OverrideIndex) Price(r DateRange, base Money, feeRate decimal.Decimal) (PricingResult, error) {
	nights := r.Nights()
	if nights <= 0 {
		return PricingResult{}, fmt.Errorf("%w: range %s has %d nights", ErrInvalidPricingInput, r, nights)
	}
	if base.Amount.IsNegative() {
		return PricingResult{}, fmt.Errorf("%w: negative base price %s", ErrInvalidPricingInput, base.Amount)
	}
	if feeRate.IsNegative() {
		return PricingResult{}, fmt.Errorf("%w: negative service fee rate %s", ErrInvalidPricingInput, feeRate)
	}

	charges := make([]NightCharge, 0, nights)
	subtotal := decimal.Zero
	var overrideErr error
	r.Each(func(d Date) {
		price, overridden := idx.NightlyPrice(d, base.Amount)
		if price.IsNegative() && overrideErr == nil {
			overrideErr = fmt.Errorf("%w: negative price override %s on %s", ErrInvalidPricingInput, price, d)
		}
		charges = append(charges, NightCharge{Date: d, Price: price, Overridden: overridden})
		subtotal = subtotal.Add(price)
	})
	if overrideErr != nil {
		return PricingResult{}, overrideErr
	}

	fee := subtotal.Mul(feeRate).Round(MinorUnits(base.Currency))

	return PricingResult{
		Currency:        base.Currency,
		Nights:          charges,
		NightlySubtotal: subtotal,
		ServiceFeeRate:  feeRate,
		ServiceFee:      fee,
		Total:           subtotal.Add(fee),
	}, nil
}
