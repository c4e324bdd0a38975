package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/omerorhan/stay-pricing/internal/engine"
)

// explainBreakdown renders the pricing steps of every period on one line, e.g.
//
//	winter[2025-01-05..2025-01-07) 2x base=100.00 => markup=160.00 => web=160.00 => eb=160.00 => grp=160.00 => subtotal=320.00
//	museum-day[2025-05-10..2025-05-11) 2x base=25.00 => age(child)=12.50 => markup=15.00 => web=15.00 => ...
func explainBreakdown(req engine.Request, bd engine.PriceBreakdown) string {
	parts := make([]string, 0, len(bd.Periods)+1)
	for _, p := range bd.Periods {
		steps := "base=" + money(p.BaseRate)
		if p.Period.Kind == engine.KindTicket {
			steps += fmt.Sprintf(" => age(%s)=%s", req.AgeBand, money(p.RoomOrUnitRate.Sub(p.AddOnCost)))
		}
		parts = append(parts, fmt.Sprintf("%s[%s..%s) %dx %s => markup=%s => %s=%s => eb=%s => grp=%s => subtotal=%s",
			p.Period.Rate.ID, p.Period.StartDate, p.Period.EndDate, p.Period.NightsOrUnits, steps,
			money(p.MarkedUpRate), req.Channel, money(p.ChannelAdjustedRate),
			money(p.AfterEarlyBird), money(p.AfterGroupDiscount), money(p.Subtotal)))
	}

	parts = append(parts, fmt.Sprintf("fees(us=%s, property=%s) vat=%s => total=%s %s",
		money(bd.FeesIncluded), money(bd.FeesAtProperty), money(bd.TaxesAndFees.CustomerVat), money(bd.Total), bd.Currency))

	return strings.Join(parts, " | ")
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
