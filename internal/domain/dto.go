package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs for API responses. Derived figures are computed by the mapper on read.

type UserDTO struct {
	ID         uuid.UUID `json:"id"`
	FName      string    `json:"fName"`
	LName      string    `json:"lName"`
	FullName   string    `json:"fullName"`
	FormalName string    `json:"formalName"`
	Email      string    `json:"email"`
	Title      string    `json:"title,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Avatar     string    `json:"avatar,omitempty"`
	Access     bool      `json:"access"`
	Roles      UserRoles `json:"roles"`
	Active     bool      `json:"active"`
	AddDate    string    `json:"addDate"`
}

// UserRoles groups the role flags of a user
type UserRoles struct {
	System     bool `json:"system"`
	Admin      bool `json:"admin"`
	Sales      bool `json:"sales"`
	Estimator  bool `json:"estimator"`
	PM         bool `json:"pm"`
	Service    bool `json:"service"`
	Accounting bool `json:"accounting"`
}

type CompanyDTO struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Street1      string       `json:"street1,omitempty"`
	Street2      string       `json:"street2,omitempty"`
	City         string       `json:"city"`
	State        string       `json:"state"`
	Region       string       `json:"region"`
	ZipCode      string       `json:"zipCode,omitempty"`
	TaxID        string       `json:"taxId,omitempty"`
	Phone        string       `json:"phone,omitempty"`
	Phone2       string       `json:"phone2,omitempty"`
	IsClient     bool         `json:"isClient"`
	IsPartner    bool         `json:"isPartner"`
	IsSupplier   bool         `json:"isSupplier"`
	IsCompetitor bool         `json:"isCompetitor"`
	SalesUserID  *uuid.UUID   `json:"salesUserId,omitempty"`
	Contacts     []ContactDTO `json:"contacts,omitempty"`
	Active       bool         `json:"active"`
	AddUserID    uuid.UUID    `json:"addUserId"`
	AddDate      string       `json:"addDate"`
}

type ContactDTO struct {
	ID            uuid.UUID `json:"id"`
	CompanyID     uuid.UUID `json:"companyId"`
	FullName      string    `json:"fullName"`
	Prefix        string    `json:"prefix,omitempty"`
	FName         string    `json:"fName"`
	LName         string    `json:"lName"`
	Salutation    string    `json:"salutation,omitempty"`
	Title         string    `json:"title,omitempty"`
	Department    string    `json:"department,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	PhonePersonal string    `json:"phonePersonal,omitempty"`
	Email         string    `json:"email,omitempty"`
	EmailPersonal string    `json:"emailPersonal,omitempty"`
	Note          string    `json:"note,omitempty"`
	Active        bool      `json:"active"`
	AddUserID     uuid.UUID `json:"addUserId"`
	AddDate       string    `json:"addDate"`
}

type OpportunityDTO struct {
	ID              uuid.UUID                `json:"id"`
	Status          OpportunityStatus        `json:"status"`
	StrStatus       string                   `json:"strStatus"`
	Name            string                   `json:"name"`
	Note            string                   `json:"note,omitempty"`
	CurrencyCode    string                   `json:"currencyCode"`
	AmountEstimated decimal.Decimal          `json:"amountEstimated"`
	AmountQuoted    decimal.Decimal          `json:"amountQuoted"`
	AmountWon       decimal.Decimal          `json:"amountWon"`
	Amount          decimal.Decimal          `json:"amount"`
	CompanyID       uuid.UUID                `json:"companyId"`
	SalesUserID     uuid.UUID                `json:"salesUserId"`
	Parts           []OpportunityPartDTO     `json:"parts"`
	Contacts        []OpportunityContactDTO  `json:"contacts"`
	Proposals       []OpportunityProposalDTO `json:"proposals"`
	Active          bool                     `json:"active"`
	AddUserID       uuid.UUID                `json:"addUserId"`
	Date            string                   `json:"date"`
}

type OpportunityPartDTO struct {
	ID          uuid.UUID `json:"id"`
	Order       int       `json:"order"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Quoted      bool      `json:"quoted"`
}

type OpportunityContactDTO struct {
	ID        uuid.UUID `json:"id"`
	ContactID uuid.UUID `json:"contactId"`
	FullName  string    `json:"fullName,omitempty"`
	CanDecide bool      `json:"canDecide"`
	ToQuote   bool      `json:"toQuote"`
	Note      string    `json:"note,omitempty"`
}

type OpportunityProposalDTO struct {
	ID             uuid.UUID `json:"id"`
	ProposalUserID uuid.UUID `json:"proposalUserId"`
	FullName       string    `json:"fullName,omitempty"`
}

type QuoteDTO struct {
	ID             uuid.UUID         `json:"id"`
	Status         QuoteStatus       `json:"status"`
	StrStatus      string            `json:"strStatus"`
	Name           string            `json:"name,omitempty"`
	QuoteNumber    string            `json:"quoteNumber"`
	QuoteDate      *time.Time        `json:"quoteDate,omitempty"`
	// Date mirrors QuoteDate for list views
	Date           *time.Time        `json:"date,omitempty"`
	QuoteExpDate   *time.Time        `json:"quoteExpDate,omitempty"`
	QuoteDelivery  string            `json:"quoteDelivery,omitempty"`
	ParIntro       string            `json:"parIntro,omitempty"`
	ParClosing     string            `json:"parClosing,omitempty"`
	ParTerms       string            `json:"parTerms,omitempty"`
	CurrencyCode   string            `json:"currencyCode"`
	SubTotal       decimal.Decimal   `json:"subTotal"`
	Optional       decimal.Decimal   `json:"optional"`
	Cost           decimal.Decimal   `json:"cost"`
	DiscountType   DiscountType      `json:"discountType"`
	Discount       decimal.Decimal   `json:"discount"`
	DiscountPerc   decimal.Decimal   `json:"discountPerc"`
	TaxPerc        decimal.Decimal   `json:"taxPerc"`
	TaxAmount      decimal.Decimal   `json:"taxAmount"`
	Total          decimal.Decimal   `json:"total"`
	Profit         decimal.Decimal   `json:"profit"`
	ProfitPerc     decimal.Decimal   `json:"profitPerc"`
	Amount         decimal.Decimal   `json:"amount"`
	OpportunityID  uuid.UUID         `json:"opportunityId"`
	SalesUserID    uuid.UUID         `json:"salesUserId"`
	RevisedQuoteID *uuid.UUID        `json:"revisedQuoteId,omitempty"`
	Parts          []QuotePartDTO    `json:"parts"`
	Contacts       []QuoteContactDTO `json:"contacts"`
	Active         bool              `json:"active"`
	AddUserID      uuid.UUID         `json:"addUserId"`
	AddDate        string            `json:"addDate"`
}

type QuoteContactDTO struct {
	ID        uuid.UUID `json:"id"`
	ContactID uuid.UUID `json:"contactId"`
	FullName  string    `json:"fullName,omitempty"`
}

type QuotePartDTO struct {
	ID                uuid.UUID          `json:"id"`
	Order             int                `json:"order"`
	Name              string             `json:"name"`
	Description       string             `json:"description,omitempty"`
	IsOptional        bool               `json:"isOptional"`
	OpportunityPartID *uuid.UUID         `json:"opportunityPartId,omitempty"`
	Items             []QuotePartItemDTO `json:"items"`
}

type QuotePartItemDTO struct {
	ID           uuid.UUID              `json:"id"`
	Order        int                    `json:"order"`
	Item         string                 `json:"item,omitempty"`
	Quantity     decimal.Decimal        `json:"quantity"`
	Unit         string                 `json:"unit,omitempty"`
	Description  string                 `json:"description,omitempty"`
	Fixed        bool                   `json:"fixed"`
	FixedPrice   decimal.Decimal        `json:"fixedPrice"`
	CalUnitPrice decimal.Decimal        `json:"calUnitPrice"`
	UnitCost     decimal.Decimal        `json:"unitCost"`
	UnitPrice    decimal.Decimal        `json:"unitPrice"`
	SubTotal     decimal.Decimal        `json:"subTotal"`
	Costs        []QuotePartItemCostDTO `json:"costs"`
}

type QuotePartItemCostDTO struct {
	ID                  uuid.UUID       `json:"id"`
	Order               int             `json:"order"`
	Quantity            decimal.Decimal `json:"quantity"`
	Unit                string          `json:"unit,omitempty"`
	Description         string          `json:"description,omitempty"`
	Note                string          `json:"note,omitempty"`
	CostMaterial        decimal.Decimal `json:"costMaterial"`
	CostLabor           decimal.Decimal `json:"costLabor"`
	CostOther           decimal.Decimal `json:"costOther"`
	Profit              decimal.Decimal `json:"profit"`
	CurrencyCode        string          `json:"currencyCode"`
	Pending             bool            `json:"pending"`
	PendingFollowUpDate *time.Time      `json:"pendingFollowUpDate,omitempty"`
}

type PODTO struct {
	ID           uuid.UUID       `json:"id"`
	Status       POStatus        `json:"status"`
	StrStatus    string          `json:"strStatus"`
	PONumber     string          `json:"poNumber"`
	PODate       *time.Time      `json:"poDate,omitempty"`
	DeliveryDate *time.Time      `json:"deliveryDate,omitempty"`
	CurrencyCode string          `json:"currencyCode"`
	SubTotal     decimal.Decimal `json:"subTotal"`
	Discount     decimal.Decimal `json:"discount"`
	TaxPerc      decimal.Decimal `json:"taxPerc"`
	TaxAmount    decimal.Decimal `json:"taxAmount"`
	Total        decimal.Decimal `json:"total"`
	Cost         decimal.Decimal `json:"cost"`
	Profit       decimal.Decimal `json:"profit"`
	ProfitPerc   decimal.Decimal `json:"profitPerc"`
	Amount       decimal.Decimal `json:"amount"`
	CompanyID    uuid.UUID       `json:"companyId"`
	BuyerID      uuid.UUID       `json:"buyerId"`
	SalesUserID  uuid.UUID       `json:"salesUserId"`
	Items        []POItemDTO     `json:"items"`
	Active       bool            `json:"active"`
	AddUserID    uuid.UUID       `json:"addUserId"`
	AddDate      string          `json:"addDate"`
}

type POItemDTO struct {
	ID              uuid.UUID       `json:"id"`
	Order           int             `json:"order"`
	Item            string          `json:"item,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit,omitempty"`
	Description     string          `json:"description,omitempty"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	UnitCost        decimal.Decimal `json:"unitCost"`
	SubTotal        decimal.Decimal `json:"subTotal"`
	QuotePartItemID *uuid.UUID      `json:"quotePartItemId,omitempty"`
}

type TaskDTO struct {
	ID            uuid.UUID  `json:"id"`
	Status        TaskStatus `json:"status"`
	StrStatus     string     `json:"strStatus"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Progress      int        `json:"progress"`
	StartDate     time.Time  `json:"startDate"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	EndDate       *time.Time `json:"endDate,omitempty"`
	ResponsibleID uuid.UUID  `json:"responsibleId"`
	OpportunityID *uuid.UUID `json:"opportunityId,omitempty"`
	QuoteID       *uuid.UUID `json:"quoteId,omitempty"`
	POID          *uuid.UUID `json:"poId,omitempty"`
	Active        bool       `json:"active"`
	AddUserID     uuid.UUID  `json:"addUserId"`
	AddDate       string     `json:"addDate"`
}

type CurrencyDTO struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Symbol        string          `json:"symbol"`
	SymbolNative  string          `json:"symbolNative"`
	DecimalDigits int             `json:"decimalDigits"`
	Rounding      decimal.Decimal `json:"rounding"`
	Rate          decimal.Decimal `json:"rate"`
	Selected      bool            `json:"selected"`
	Date          string          `json:"date"`
}

// ConversionDTO is the result of a currency conversion
type ConversionDTO struct {
	Amount decimal.Decimal `json:"amount"`
	From   string          `json:"from"`
	To     string          `json:"to"`
	Value  decimal.Decimal `json:"value"`
}

// PaginatedResponse wraps a page of results
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// Request types that do not go through an entity validator

// ChangeQuoteStatusRequest asks for an operator-driven quote status change
type ChangeQuoteStatusRequest struct {
	ToStatus *int `json:"toStatus" validate:"required,min=0,max=200"`
}

// CreateUserRequest creates an application user
type CreateUserRequest struct {
	FName            string `json:"fName" validate:"required,min=1,max=100"`
	LName            string `json:"lName" validate:"required,min=1,max=100"`
	Email            string `json:"email" validate:"required,email,max=150"`
	Password         string `json:"password" validate:"required,min=8,max=72"`
	Title            string `json:"title" validate:"max=100"`
	Phone            string `json:"phone" validate:"omitempty,min=7,max=25"`
	IsRoleAdmin      bool   `json:"isRoleAdmin"`
	IsRoleSales      bool   `json:"isRoleSales"`
	IsRoleEstimator  bool   `json:"isRoleEstimator"`
	IsRolePM         bool   `json:"isRolePM"`
	IsRoleService    bool   `json:"isRoleService"`
	IsRoleAccounting bool   `json:"isRoleAccounting"`
}

// UpdateUserRequest updates profile and role fields of a user
type UpdateUserRequest struct {
	FName            *string `json:"fName" validate:"omitempty,min=1,max=100"`
	LName            *string `json:"lName" validate:"omitempty,min=1,max=100"`
	Title            *string `json:"title" validate:"omitempty,max=100"`
	Phone            *string `json:"phone" validate:"omitempty,min=7,max=25"`
	Password         *string `json:"password" validate:"omitempty,min=8,max=72"`
	Access           *bool   `json:"access"`
	IsRoleAdmin      *bool   `json:"isRoleAdmin"`
	IsRoleSales      *bool   `json:"isRoleSales"`
	IsRoleEstimator  *bool   `json:"isRoleEstimator"`
	IsRolePM         *bool   `json:"isRolePM"`
	IsRoleService    *bool   `json:"isRoleService"`
	IsRoleAccounting *bool   `json:"isRoleAccounting"`
}

// ConvertCurrencyRequest converts an amount between two currencies
type ConvertCurrencyRequest struct {
	Amount decimal.Decimal `json:"amount"`
	From   string          `json:"from" validate:"required,max=5"`
	To     string          `json:"to" validate:"required,max=5"`
}

// RatesSnapshotDTO is the exchange table after a refresh
type RatesSnapshotDTO struct {
	Base      string                     `json:"base"`
	FetchedAt time.Time                  `json:"fetchedAt"`
	Rates     map[string]decimal.Decimal `json:"rates"`
}

// SeedResultDTO reports how many catalog currencies were inserted
type SeedResultDTO struct {
	Inserted int `json:"inserted"`
}

// NumberSequenceDTO is one document counter and the last value it issued
type NumberSequenceDTO struct {
	Scope        string `json:"scope"`
	Period       string `json:"period"`
	LastSequence int    `json:"lastSequence"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// LoginRequest exchanges credentials for a bearer token
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries an issued bearer token
type TokenResponse struct {
	Token     string  `json:"token"`
	TokenType string  `json:"tokenType"`
	User      UserDTO `json:"user"`
}
