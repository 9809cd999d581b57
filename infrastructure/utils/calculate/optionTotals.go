package calculate

import (
	"github.com/shopspring/decimal"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
)

// CalculateOptionTotals returns option with Totals recomputed from its containers,
// seafreight rates, haulages and services. Missing or malformed inputs contribute zero,
// partially filled options are valid input.
func CalculateOptionTotals(option entities.DraftQuoteOption) entities.DraftQuoteOption {
	totals := entities.ZeroTotals()

	totals.PerContainer = PerContainer(option.Containers)
	for containerType, qty := range totals.PerContainer {
		totals.ByContainerType[containerType] = entities.ContainerTypeTotal{
			Qty:       qty,
			UnitPrice: decimal.Zero,
			Subtotal:  decimal.Zero,
		}
	}

	totals.SeafreightBaseTotal = SeafreightBaseTotal(option.Seafreight, totals.PerContainer)
	totals.HaulageTotal, totals.SurchargesTotal = HaulageTotals(option.Haulages)
	totals.ServicesTotal = ServicesTotal(option.Services)
	totals.GrandTotal = totals.SeafreightBaseTotal.
		Add(totals.HaulageTotal).
		Add(totals.ServicesTotal).
		Add(totals.SurchargesTotal)

	option.Totals = totals
	return option
}

// PerContainer sums quantities grouped by container type. Lines without a type
// or without a positive quantity are skipped.
func PerContainer(containers []entities.ContainerLine) map[string]int {
	perContainer := make(map[string]int, len(containers))
	for _, line := range containers {
		if line.ContainerType == "" || line.Quantity <= 0 {
			continue
		}
		perContainer[line.ContainerType] += line.Quantity
	}
	return perContainer
}

// SeafreightBaseTotal prices each rate by the quantity of its container type; a rate
// for a container type absent from perContainer contributes zero.
func SeafreightBaseTotal(seafreight *entities.Seafreight, perContainer map[string]int) decimal.Decimal {
	total := decimal.Zero
	if seafreight == nil {
		return total
	}

	for _, rate := range seafreight.Rate {
		qty, ok := perContainer[rate.ContainerType]
		if !ok || qty == 0 {
			continue
		}
		total = total.Add(rate.BasePrice.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}

// HaulageTotals returns the sum of haulage base prices and the sum of their surcharges.
func HaulageTotals(haulages []entities.Haulage) (haulageTotal decimal.Decimal, surchargesTotal decimal.Decimal) {
	haulageTotal = decimal.Zero
	surchargesTotal = decimal.Zero
	for _, haulage := range haulages {
		haulageTotal = haulageTotal.Add(haulage.BasePrice)
		for _, surcharge := range haulage.Surcharges {
			surchargesTotal = surchargesTotal.Add(surcharge.Value)
		}
	}
	return
}

func ServicesTotal(services []entities.ServiceLine) decimal.Decimal {
	total := decimal.Zero
	for _, service := range services {
		total = total.Add(service.Value)
	}
	return total
}

// TotalValue sums the grand totals of all options.
func TotalValue(options []entities.DraftQuoteOption) decimal.Decimal {
	total := decimal.Zero
	for _, option := range options {
		total = total.Add(option.Totals.GrandTotal)
	}
	return total
}
