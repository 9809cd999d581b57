package entities

import "time"

// Patch types carry the fields of a partial update. A nil field is left untouched,
// nested records are replaced as a whole (shallow merge).

type CustomerPatch struct {
	CustomerId  *string  `json:"customerId,omitempty"`
	Name        *string  `json:"name,omitempty"`
	ContactName *string  `json:"contactName,omitempty"`
	Email       *string  `json:"email,omitempty"`
	Phone       *string  `json:"phone,omitempty"`
	Address     *Address `json:"address,omitempty"`
}

type ShipmentPatch struct {
	Origin           *ShipmentEndpoint `json:"origin,omitempty"`
	Destination      *ShipmentEndpoint `json:"destination,omitempty"`
	ContainerTypes   *[]string         `json:"containerTypes,omitempty"`
	Containers       *[]ContainerLine  `json:"containers,omitempty"`
	Incoterm         *string           `json:"incoterm,omitempty"`
	CargoDescription *string           `json:"cargoDescription,omitempty"`
	ReadyDate        *time.Time        `json:"readyDate,omitempty"`
}

type WizardPatch struct {
	CurrentStep    *int    `json:"currentStep,omitempty"`
	CompletedSteps *[]int  `json:"completedSteps,omitempty"`
	ServiceLevel   *string `json:"serviceLevel,omitempty"`
}

type CommercialTermsPatch struct {
	PaymentTerms *string `json:"paymentTerms,omitempty"`
	ValidityDays *int    `json:"validityDays,omitempty"`
	MarginPct    *string `json:"marginPct,omitempty"`
}

// OptionPatch never touches OptionId or Totals.
type OptionPatch struct {
	Label      *string          `json:"label,omitempty"`
	ValidUntil *time.Time       `json:"validUntil,omitempty"`
	Currency   *string          `json:"currency,omitempty"`
	Containers *[]ContainerLine `json:"containers,omitempty"`
	Seafreight *Seafreight      `json:"seafreight,omitempty"`
	Haulages   *[]Haulage       `json:"haulages,omitempty"`
	Services   *[]ServiceLine   `json:"services,omitempty"`
}

func (customer *Customer) Apply(patch CustomerPatch) {
	if patch.CustomerId != nil {
		customer.CustomerId = *patch.CustomerId
	}
	if patch.Name != nil {
		customer.Name = *patch.Name
	}
	if patch.ContactName != nil {
		customer.ContactName = *patch.ContactName
	}
	if patch.Email != nil {
		customer.Email = *patch.Email
	}
	if patch.Phone != nil {
		customer.Phone = *patch.Phone
	}
	if patch.Address != nil {
		customer.Address = *patch.Address
	}
}

func (shipment *Shipment) Apply(patch ShipmentPatch) {
	if patch.Origin != nil {
		shipment.Origin = *patch.Origin
	}
	if patch.Destination != nil {
		shipment.Destination = *patch.Destination
	}
	if patch.ContainerTypes != nil {
		shipment.ContainerTypes = append([]string{}, (*patch.ContainerTypes)...)
	}
	if patch.Containers != nil {
		shipment.Containers = append([]ContainerLine{}, (*patch.Containers)...)
	}
	if patch.Incoterm != nil {
		shipment.Incoterm = *patch.Incoterm
	}
	if patch.CargoDescription != nil {
		shipment.CargoDescription = *patch.CargoDescription
	}
	if patch.ReadyDate != nil {
		readyDate := *patch.ReadyDate
		shipment.ReadyDate = &readyDate
	}
}

func (wizard *Wizard) Apply(patch WizardPatch) {
	if patch.CurrentStep != nil {
		wizard.CurrentStep = *patch.CurrentStep
	}
	if patch.CompletedSteps != nil {
		wizard.CompletedSteps = append([]int{}, (*patch.CompletedSteps)...)
	}
	if patch.ServiceLevel != nil {
		wizard.ServiceLevel = *patch.ServiceLevel
	}
}

func (terms *CommercialTerms) Apply(patch CommercialTermsPatch) {
	if patch.PaymentTerms != nil {
		terms.PaymentTerms = *patch.PaymentTerms
	}
	if patch.ValidityDays != nil {
		terms.ValidityDays = *patch.ValidityDays
	}
	if patch.MarginPct != nil {
		terms.MarginPct = *patch.MarginPct
	}
}

func (option *DraftQuoteOption) Apply(patch OptionPatch) {
	if patch.Label != nil {
		option.Label = *patch.Label
	}
	if patch.ValidUntil != nil {
		option.ValidUntil = *patch.ValidUntil
	}
	if patch.Currency != nil {
		option.Currency = *patch.Currency
	}
	if patch.Containers != nil {
		option.Containers = append([]ContainerLine{}, (*patch.Containers)...)
	}
	if patch.Seafreight != nil {
		seafreight := patch.Seafreight.Clone()
		option.Seafreight = &seafreight
	}
	if patch.Haulages != nil {
		haulages := DraftQuoteOption{Haulages: *patch.Haulages}.Clone().Haulages
		if haulages == nil {
			haulages = []Haulage{}
		}
		option.Haulages = haulages
	}
	if patch.Services != nil {
		option.Services = append([]ServiceLine{}, (*patch.Services)...)
	}
}
