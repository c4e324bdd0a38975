package engine

import (
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	percent = decimal.New(1, -2)
)

// fromPercent converts percentage points to a fraction without dividing.
func fromPercent(d decimal.Decimal) decimal.Decimal { return d.Mul(percent) }

// channelCoefficients are signed fractions applied as rate * (1 + coefficient).
var channelCoefficients = map[Channel]decimal.Decimal{
	ChannelWeb:       decimal.Zero,
	ChannelB2B:       decimal.RequireFromString("-0.10"),
	ChannelInternal:  decimal.RequireFromString("-0.20"),
	ChannelBoxOffice: decimal.RequireFromString("0.05"),
	ChannelReseller:  decimal.RequireFromString("0.15"),
}

var ageBandMultipliers = map[AgeBand]decimal.Decimal{
	AgeBandAdult:   one,
	AgeBandChild:   decimal.RequireFromString("0.50"),
	AgeBandSenior:  decimal.RequireFromString("0.80"),
	AgeBandStudent: decimal.RequireFromString("0.85"),
	AgeBandInfant:  decimal.Zero,
}

func ChannelCoefficient(ch Channel) (decimal.Decimal, error) {
	c, ok := channelCoefficients[ch]
	if !ok {
		return decimal.Zero, &UnknownEnumError{Kind: "channel", Value: string(ch)}
	}
	return c, nil
}

func AgeBandMultiplier(band AgeBand) (decimal.Decimal, error) {
	m, ok := ageBandMultipliers[band]
	if !ok {
		return decimal.Zero, &UnknownEnumError{Kind: "age band", Value: string(band)}
	}
	return m, nil
}

// ApplyChannelAdjustment returns rate * (1 + channel coefficient).
func ApplyChannelAdjustment(rate decimal.Decimal, ch Channel) (decimal.Decimal, error) {
	c, err := ChannelCoefficient(ch)
	if err != nil {
		return decimal.Zero, err
	}
	return rate.Mul(one.Add(c)), nil
}

func ApplyAgeBand(rate decimal.Decimal, band AgeBand) (decimal.Decimal, error) {
	m, err := AgeBandMultiplier(band)
	if err != nil {
		return decimal.Zero, err
	}
	return rate.Mul(m), nil
}

// AdjustTicketRate applies the age band multiplier first and the channel coefficient second.
func AdjustTicketRate(base decimal.Decimal, band AgeBand, ch Channel) (decimal.Decimal, error) {
	aged, err := ApplyAgeBand(base, band)
	if err != nil {
		return decimal.Zero, err
	}
	return ApplyChannelAdjustment(aged, ch)
}

func validFeeMode(m FeeMode) bool {
	switch m {
	case FeePerUnit, FeePerPerson, FeePerNight, FeePerPersonPerNight, FeePerRoomPerNight, FeePercentOfRate, FeeFixed:
		return true
	}
	return false
}

func validPayable(p Payable) bool {
	return p == PayableUs || p == PayableProperty
}
