package entities

import (
	"time"
)

const DocumentVersion string = "1.0.0"

// DefaultCurrency is applied to new drafts and options, app setup overrides it from configuration.
var DefaultCurrency = "EUR"

type DraftQuoteStatus string

const (
	DraftStatus      DraftQuoteStatus = "draft"
	InProgressStatus DraftQuoteStatus = "in_progress"
	FinalizedStatus  DraftQuoteStatus = "finalized"
	CancelledStatus  DraftQuoteStatus = "cancelled"
)

func (status DraftQuoteStatus) IsValid() bool {
	switch status {
	case DraftStatus, InProgressStatus, FinalizedStatus, CancelledStatus:
		return true
	}
	return false
}

func (status DraftQuoteStatus) IsTerminal() bool {
	return status == FinalizedStatus || status == CancelledStatus
}

// DraftQuote is the root aggregate edited by the quote wizard.
// DraftQuoteId stays empty until the quote service assigned one.
type DraftQuote struct {
	DraftQuoteId    string             `json:"draftQuoteId,omitempty" bson:"draftQuoteId"`
	RequestQuoteId  string             `json:"requestQuoteId" bson:"requestQuoteId"`
	DocVersion      string             `json:"-" bson:"docVersion"`
	Status          DraftQuoteStatus   `json:"status" bson:"status"`
	Currency        string             `json:"currency" bson:"currency"`
	Customer        Customer           `json:"customer" bson:"customer"`
	Shipment        Shipment           `json:"shipment" bson:"shipment"`
	CommercialTerms CommercialTerms    `json:"commercialTerms" bson:"commercialTerms"`
	Wizard          Wizard             `json:"wizard" bson:"wizard"`
	Options         []DraftQuoteOption `json:"options" bson:"options"`
	Notes           string             `json:"notes,omitempty" bson:"notes"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
	DeletedAt       *time.Time         `json:"-" bson:"deletedAt"`
}

type Customer struct {
	CustomerId  string  `json:"customerId,omitempty" bson:"customerId"`
	Name        string  `json:"name" bson:"name"`
	ContactName string  `json:"contactName,omitempty" bson:"contactName"`
	Email       string  `json:"email,omitempty" bson:"email"`
	Phone       string  `json:"phone,omitempty" bson:"phone"`
	Address     Address `json:"address" bson:"address"`
}

type Address struct {
	Street  string `json:"street,omitempty" bson:"street"`
	City    string `json:"city,omitempty" bson:"city"`
	ZipCode string `json:"zipCode,omitempty" bson:"zipCode"`
	Country string `json:"country,omitempty" bson:"country"`
}

type Shipment struct {
	Origin           ShipmentEndpoint `json:"origin" bson:"origin"`
	Destination      ShipmentEndpoint `json:"destination" bson:"destination"`
	ContainerTypes   []string         `json:"containerTypes" bson:"containerTypes"`
	Containers       []ContainerLine  `json:"containers,omitempty" bson:"containers"`
	Incoterm         string           `json:"incoterm,omitempty" bson:"incoterm"`
	CargoDescription string           `json:"cargoDescription,omitempty" bson:"cargoDescription"`
	ReadyDate        *time.Time       `json:"readyDate,omitempty" bson:"readyDate"`
}

type ShipmentEndpoint struct {
	Location string `json:"location" bson:"location"`
	PortCode string `json:"portCode,omitempty" bson:"portCode"`
	Country  string `json:"country,omitempty" bson:"country"`
}

type CommercialTerms struct {
	PaymentTerms string `json:"paymentTerms,omitempty" bson:"paymentTerms"`
	ValidityDays int    `json:"validityDays,omitempty" bson:"validityDays"`
	MarginPct    string `json:"marginPct,omitempty" bson:"marginPct"`
}

type Wizard struct {
	CurrentStep    int    `json:"currentStep" bson:"currentStep"`
	CompletedSteps []int  `json:"completedSteps,omitempty" bson:"completedSteps"`
	ServiceLevel   string `json:"serviceLevel,omitempty" bson:"serviceLevel"`
}

// NewDraftQuote returns an empty draft for the given request quote with all defaults applied.
func NewDraftQuote(requestQuoteId string) DraftQuote {
	return DraftQuote{
		RequestQuoteId: requestQuoteId,
		DocVersion:     DocumentVersion,
		Status:         DraftStatus,
		Currency:       DefaultCurrency,
		Options:        make([]DraftQuoteOption, 0, 4),
	}
}

func (draft DraftQuote) FindOption(optionId string) (int, bool) {
	for i := range draft.Options {
		if draft.Options[i].OptionId == optionId {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a deep copy that shares no slices, maps or pointers with draft.
func (draft DraftQuote) Clone() DraftQuote {
	clone := draft
	clone.Shipment = draft.Shipment.Clone()
	clone.Wizard = draft.Wizard.Clone()
	if draft.DeletedAt != nil {
		deletedAt := *draft.DeletedAt
		clone.DeletedAt = &deletedAt
	}
	if draft.Options != nil {
		clone.Options = make([]DraftQuoteOption, len(draft.Options))
		for i := range draft.Options {
			clone.Options[i] = draft.Options[i].Clone()
		}
	}
	return clone
}

func (shipment Shipment) Clone() Shipment {
	clone := shipment
	if shipment.ContainerTypes != nil {
		clone.ContainerTypes = append([]string(nil), shipment.ContainerTypes...)
	}
	if shipment.Containers != nil {
		clone.Containers = append([]ContainerLine(nil), shipment.Containers...)
	}
	if shipment.ReadyDate != nil {
		readyDate := *shipment.ReadyDate
		clone.ReadyDate = &readyDate
	}
	return clone
}

func (wizard Wizard) Clone() Wizard {
	clone := wizard
	if wizard.CompletedSteps != nil {
		clone.CompletedSteps = append([]int(nil), wizard.CompletedSteps...)
	}
	return clone
}
