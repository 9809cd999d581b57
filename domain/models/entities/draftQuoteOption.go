package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultOptionLabel string = "New Option"

var DefaultOptionValidityDays = 15

// DraftQuoteOption is one priced alternative of a draft quote.
// Totals is derived by the totals calculator and is never edited by hand.
type DraftQuoteOption struct {
	OptionId   string          `json:"optionId" bson:"optionId"`
	Label      string          `json:"label" bson:"label"`
	ValidUntil time.Time       `json:"validUntil" bson:"validUntil"`
	Currency   string          `json:"currency" bson:"currency"`
	Containers []ContainerLine `json:"containers" bson:"containers"`
	Seafreight *Seafreight     `json:"seafreight,omitempty" bson:"seafreight"`
	Haulages   []Haulage       `json:"haulages" bson:"haulages"`
	Services   []ServiceLine   `json:"services" bson:"services"`
	Totals     OptionTotals    `json:"totals" bson:"totals"`
}

type ContainerLine struct {
	ContainerType string `json:"containerType" bson:"containerType"`
	Quantity      int    `json:"quantity" bson:"quantity"`
}

type Seafreight struct {
	SeafreightId string           `json:"seafreightId,omitempty" bson:"seafreightId"`
	Carrier      string           `json:"carrier,omitempty" bson:"carrier"`
	TransitDays  int              `json:"transitDays,omitempty" bson:"transitDays"`
	Rate         []SeafreightRate `json:"rate" bson:"rate"`
	Surcharges   []Surcharge      `json:"surcharges,omitempty" bson:"surcharges"`
}

type SeafreightRate struct {
	ContainerType string          `json:"containerType" bson:"containerType"`
	BasePrice     decimal.Decimal `json:"basePrice" bson:"basePrice"`
}

type Surcharge struct {
	Name     string          `json:"name,omitempty" bson:"name"`
	Type     string          `json:"type,omitempty" bson:"type"`
	Value    decimal.Decimal `json:"value" bson:"value"`
	Currency string          `json:"currency,omitempty" bson:"currency"`
}

type Haulage struct {
	HaulageId       string          `json:"haulageId,omitempty" bson:"haulageId"`
	Haulier         string          `json:"haulier,omitempty" bson:"haulier"`
	LoadingLocation string          `json:"loadingLocation,omitempty" bson:"loadingLocation"`
	BasePrice       decimal.Decimal `json:"basePrice" bson:"basePrice"`
	Surcharges      []Surcharge     `json:"surcharges,omitempty" bson:"surcharges"`
}

type ServiceLine struct {
	ServiceId string          `json:"serviceId,omitempty" bson:"serviceId"`
	Name      string          `json:"name,omitempty" bson:"name"`
	Value     decimal.Decimal `json:"value" bson:"value"`
	Currency  string          `json:"currency,omitempty" bson:"currency"`
}

type OptionTotals struct {
	PerContainer        map[string]int                `json:"perContainer" bson:"perContainer"`
	ByContainerType     map[string]ContainerTypeTotal `json:"byContainerType" bson:"byContainerType"`
	SeafreightBaseTotal decimal.Decimal               `json:"seafreightBaseTotal" bson:"seafreightBaseTotal"`
	HaulageTotal        decimal.Decimal               `json:"haulageTotal" bson:"haulageTotal"`
	ServicesTotal       decimal.Decimal               `json:"servicesTotal" bson:"servicesTotal"`
	SurchargesTotal     decimal.Decimal               `json:"surchargesTotal" bson:"surchargesTotal"`
	GrandTotal          decimal.Decimal               `json:"grandTotal" bson:"grandTotal"`
}

// ContainerTypeTotal keeps UnitPrice and Subtotal reserved; the calculator only fills Qty.
type ContainerTypeTotal struct {
	Qty       int             `json:"qty" bson:"qty"`
	UnitPrice decimal.Decimal `json:"unitPrice" bson:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal" bson:"subtotal"`
}

func ZeroTotals() OptionTotals {
	return OptionTotals{
		PerContainer:    map[string]int{},
		ByContainerType: map[string]ContainerTypeTotal{},
	}
}

// NewDraftQuoteOption builds an option from the default template.
func NewDraftQuoteOption(optionId string, now time.Time) DraftQuoteOption {
	return DraftQuoteOption{
		OptionId:   optionId,
		Label:      DefaultOptionLabel,
		ValidUntil: now.AddDate(0, 0, DefaultOptionValidityDays),
		Currency:   DefaultCurrency,
		Containers: []ContainerLine{},
		Haulages:   []Haulage{},
		Services:   []ServiceLine{},
		Totals:     ZeroTotals(),
	}
}

func (option DraftQuoteOption) Clone() DraftQuoteOption {
	clone := option
	if option.Containers != nil {
		clone.Containers = append([]ContainerLine(nil), option.Containers...)
	}
	if option.Seafreight != nil {
		seafreight := option.Seafreight.Clone()
		clone.Seafreight = &seafreight
	}
	if option.Haulages != nil {
		clone.Haulages = make([]Haulage, len(option.Haulages))
		for i := range option.Haulages {
			clone.Haulages[i] = option.Haulages[i]
			clone.Haulages[i].Surcharges = cloneSurcharges(option.Haulages[i].Surcharges)
		}
	}
	if option.Services != nil {
		clone.Services = append([]ServiceLine(nil), option.Services...)
	}
	clone.Totals = option.Totals.Clone()
	return clone
}

func (seafreight Seafreight) Clone() Seafreight {
	clone := seafreight
	if seafreight.Rate != nil {
		clone.Rate = append([]SeafreightRate(nil), seafreight.Rate...)
	}
	clone.Surcharges = cloneSurcharges(seafreight.Surcharges)
	return clone
}

func (totals OptionTotals) Clone() OptionTotals {
	clone := totals
	if totals.PerContainer != nil {
		clone.PerContainer = make(map[string]int, len(totals.PerContainer))
		for k, v := range totals.PerContainer {
			clone.PerContainer[k] = v
		}
	}
	if totals.ByContainerType != nil {
		clone.ByContainerType = make(map[string]ContainerTypeTotal, len(totals.ByContainerType))
		for k, v := range totals.ByContainerType {
			clone.ByContainerType[k] = v
		}
	}
	return clone
}

func cloneSurcharges(surcharges []Surcharge) []Surcharge {
	if surcharges == nil {
		return nil
	}
	return append([]Surcharge(nil), surcharges...)
}
