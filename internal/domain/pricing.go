package domain

import "github.com/shopspring/decimal"

var percentDivisor = decimal.NewFromInt(100)

// Round2 rounds a monetary value to two decimal places, half away from zero.
// All persisted amounts pass through this so that discount + paid-after-discount
// reconciles to the cent across repeated runs.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// FromMinorUnits converts a gateway amount in minor units (paise) to a major-unit value.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// PaymentAmounts captures the monetary results of pricing a confirmed payment.
type PaymentAmounts struct {
	DiscountAmount decimal.Decimal
	// LocalTotal is the locally derived figure, retained for audit and reconciliation.
	LocalTotal decimal.Decimal
	// PaidTotal is the amount persisted on the order. When the gateway reports a
	// captured amount that value wins, since it is the record of money actually moved.
	PaidTotal       decimal.Decimal
	GatewayReported bool
}

// ComputeAmounts derives discount and totals for a payment confirmation.
// capturedMinor carries the gateway's captured amount in minor units when available.
func ComputeAmounts(subtotal, discountPercent, shippingFee decimal.Decimal, capturedMinor *int64) PaymentAmounts {
	discount := Round2(subtotal.Mul(discountPercent).Div(percentDivisor))
	local := Round2(subtotal.Sub(discount).Add(shippingFee))

	amounts := PaymentAmounts{
		DiscountAmount: discount,
		LocalTotal:     local,
		PaidTotal:      local,
	}
	if capturedMinor != nil {
		amounts.PaidTotal = FromMinorUnits(*capturedMinor)
		amounts.GatewayReported = true
	}
	return amounts
}

// ComputeAmountsFromDiscount derives totals when the discount is already a fixed
// amount, as on orders that carry no promo attribution.
func ComputeAmountsFromDiscount(subtotal, discountAmount, shippingFee decimal.Decimal, capturedMinor *int64) PaymentAmounts {
	discount := Round2(discountAmount)
	local := Round2(subtotal.Sub(discount).Add(shippingFee))

	amounts := PaymentAmounts{
		DiscountAmount: discount,
		LocalTotal:     local,
		PaidTotal:      local,
	}
	if capturedMinor != nil {
		amounts.PaidTotal = FromMinorUnits(*capturedMinor)
		amounts.GatewayReported = true
	}
	return amounts
}

// CommissionAmount computes the influencer commission. Commission is always based
// on the order subtotal, independent of which total was persisted, so gateway
// rounding differences never change what an influencer earns.
func CommissionAmount(subtotal, commissionPercent decimal.Decimal) decimal.Decimal {
	return Round2(subtotal.Mul(commissionPercent).Div(percentDivisor))
}
