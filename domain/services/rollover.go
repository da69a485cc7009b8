package services

import (
	"fmt"

	"stakehouse/domain/entities"
	"stakehouse/domain/interfaces"
)

// CalculatePayableTickets converts one settlement period's stake totals
// plus the previous period's unredeemed inventory into the payable-ticket
// amount and the rollover carried into the next period.
//
// Tickets are fungible but originate from two sources, purchased and
// promotionally granted, and only the paid fraction is payable as reward
// currency. The rollover preserves the paid/free mix ratio of whatever
// was not consumed.
func CalculatePayableTickets(previous interfaces.RolloverState, current interfaces.PeriodTotals) (interfaces.RolloverResult, error) {
	paidFractionPrev := entities.DequantizeRatio(previous.RolloverRatio)

	paidCarried := previous.RolloverTickets * paidFractionPrev
	freeCarried := previous.RolloverTickets * (1 - paidFractionPrev)

	currentPaid := float64(current.TotalTicketsBought) + paidCarried
	currentFree := float64(current.TotalFreeTickets) + freeCarried

	var payableRatio float64
	if currentPaid+currentFree > 0 {
		payableRatio = currentPaid / (currentPaid + currentFree)
	}

	payableTickets := payableRatio * float64(current.TotalTicketsUsed)
	rolloverTickets := (currentPaid + currentFree) - float64(current.TotalTicketsUsed)

	// Usage exceeding the available inventory means the ledger itself is
	// corrupt. That is an operator problem, never something to clamp.
	if rolloverTickets < 0 {
		return interfaces.RolloverResult{}, fmt.Errorf(
			"%w: rollover would be %f (used %d of %f available)",
			ErrReconciliation, rolloverTickets, current.TotalTicketsUsed, currentPaid+currentFree,
		)
	}

	return interfaces.RolloverResult{
		PayableTickets:  payableTickets,
		RolloverTickets: rolloverTickets,
		RolloverRatio:   entities.QuantizeRatio(payableRatio),
	}, nil
}
