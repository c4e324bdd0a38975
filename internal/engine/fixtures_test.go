package engine

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func day(y, m, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func rate(id, base string, from, to civil.Date) RateRecord {
	return RateRecord{
		ID:         id,
		CategoryID: "deluxe",
		BaseRate:   dec(base),
		Currency:   "EUR",
		ValidFrom:  from,
		ValidTo:    to,
		Active:     true,
	}
}

func stayRequest(start, end civil.Date, adults int) Request {
	return Request{
		Kind:      KindStay,
		StartDate: start,
		EndDate:   end,
		Party:     Party{Adults: adults},
		Channel:   ChannelWeb,
	}
}

func ticketRequest(event civil.Date, quantity int, band AgeBand) Request {
	return Request{
		Kind:      KindTicket,
		EventDate: event,
		Quantity:  quantity,
		Channel:   ChannelWeb,
		AgeBand:   band,
	}
}

func markupOnly(markup string) ContractEconomics {
	return ContractEconomics{
		ContractID:              "c-1",
		DefaultMarkupPercentage: dec(markup),
	}
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}
