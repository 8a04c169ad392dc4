package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BaseModel carries the surrogate key shared by every table
type BaseModel struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

// BeforeCreate assigns a new UUID when the caller did not provide one
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Audit holds the soft-delete and authorship fields.
// AddUserID and AddDate never change after insert; DelUserID and DelDate are set once.
type Audit struct {
	Active    bool       `gorm:"not null;default:true;index"`
	AddDate   time.Time  `gorm:"not null"`
	AddUserID uuid.UUID  `gorm:"type:uuid;not null;column:add_user_id;index"`
	DelUserID *uuid.UUID `gorm:"type:uuid;column:del_user_id"`
	DelDate   *time.Time `gorm:"column:del_date"`
}

// IsDeleted reports whether the row has been soft-deleted
func (a *Audit) IsDeleted() bool {
	return !a.Active || a.DelDate != nil
}

// User is an application user with role and permission flags
type User struct {
	BaseModel
	FName         string `gorm:"type:varchar(100);not null;column:f_name"`
	LName         string `gorm:"type:varchar(100);not null;column:l_name"`
	Email         string `gorm:"type:varchar(150);not null;uniqueIndex"`
	Password      string `gorm:"type:varchar(100);not null"`
	Access        bool   `gorm:"not null;default:true"`
	Title         string `gorm:"type:varchar(100)"`
	Phone         string `gorm:"type:varchar(25)"`
	PhonePersonal string `gorm:"type:varchar(25)"`
	EmailPersonal string `gorm:"type:varchar(150)"`
	Avatar        string `gorm:"type:varchar(500)"`

	IsRoleSystem     bool `gorm:"not null;default:false"`
	IsRoleAdmin      bool `gorm:"not null;default:false"`
	IsRoleSales      bool `gorm:"not null;default:false"`
	IsRoleEstimator  bool `gorm:"not null;default:false"`
	IsRolePM         bool `gorm:"not null;default:false;column:is_role_pm"`
	IsRoleService    bool `gorm:"not null;default:false"`
	IsRoleAccounting bool `gorm:"not null;default:false"`

	AuthUserAdd bool `gorm:"not null;default:false"`
	AuthUserMod bool `gorm:"not null;default:false"`
	AuthUserDel bool `gorm:"not null;default:false"`

	AuthCompanyAll bool `gorm:"not null;default:false"`
	AuthCompanyAdd bool `gorm:"not null;default:false"`
	AuthCompanyMod bool `gorm:"not null;default:false"`
	AuthCompanyDel bool `gorm:"not null;default:false"`

	AuthContactAll bool `gorm:"not null;default:false"`
	AuthContactAdd bool `gorm:"not null;default:false"`
	AuthContactMod bool `gorm:"not null;default:false"`
	AuthContactDel bool `gorm:"not null;default:false"`

	AuthOpportunityAll bool `gorm:"not null;default:false"`
	AuthOpportunityAdd bool `gorm:"not null;default:false"`
	AuthOpportunityMod bool `gorm:"not null;default:false"`
	AuthOpportunityDel bool `gorm:"not null;default:false"`

	AuthQuoteAll      bool `gorm:"not null;default:false"`
	AuthQuoteAdd      bool `gorm:"not null;default:false"`
	AuthQuoteMod      bool `gorm:"not null;default:false"`
	AuthQuoteDel      bool `gorm:"not null;default:false"`
	AuthQuoteApproval bool `gorm:"not null;default:false"`

	AuthPOAll bool `gorm:"not null;default:false;column:auth_po_all"`
	AuthPOAdd bool `gorm:"not null;default:false;column:auth_po_add"`
	AuthPOMod bool `gorm:"not null;default:false;column:auth_po_mod"`
	AuthPODel bool `gorm:"not null;default:false;column:auth_po_del"`

	Audit
}

// FullName returns "First Last"
func (u *User) FullName() string {
	return u.FName + " " + u.LName
}

// FormalName returns "Last, First"
func (u *User) FormalName() string {
	return u.LName + ", " + u.FName
}

// Company is a business relation: client, partner, supplier or competitor
type Company struct {
	BaseModel
	Name         string     `gorm:"type:varchar(255);not null;index"`
	Street1      string     `gorm:"type:varchar(150)"`
	Street2      string     `gorm:"type:varchar(150)"`
	City         string     `gorm:"type:varchar(75);not null"`
	State        string     `gorm:"type:varchar(75);not null;index"`
	Region       string     `gorm:"type:varchar(75);not null"`
	ZipCode      string     `gorm:"type:varchar(25)"`
	TaxID        string     `gorm:"type:varchar(30);column:tax_id"`
	Phone        string     `gorm:"type:varchar(25)"`
	Phone2       string     `gorm:"type:varchar(25)"`
	IsClient     bool       `gorm:"not null;default:false"`
	IsPartner    bool       `gorm:"not null;default:false"`
	IsSupplier   bool       `gorm:"not null;default:false"`
	IsCompetitor bool       `gorm:"not null;default:false"`
	SalesUserID  *uuid.UUID `gorm:"type:uuid;column:sales_user_id;index"`
	SalesUser    *User      `gorm:"foreignKey:SalesUserID"`
	Contacts     []Contact  `gorm:"foreignKey:CompanyID"`
	Audit
}

// Contact is a person working at a company
type Contact struct {
	BaseModel
	CompanyID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Company       *Company  `gorm:"foreignKey:CompanyID"`
	Avatar        string    `gorm:"type:varchar(500)"`
	Prefix        string    `gorm:"type:varchar(25)"`
	FName         string    `gorm:"type:varchar(100);not null;column:f_name"`
	LName         string    `gorm:"type:varchar(100);not null;column:l_name"`
	Salutation    string    `gorm:"type:varchar(100)"`
	Title         string    `gorm:"type:varchar(100)"`
	Department    string    `gorm:"type:varchar(150)"`
	Phone         string    `gorm:"type:varchar(25)"`
	PhonePersonal string    `gorm:"type:varchar(25)"`
	Email         string    `gorm:"type:varchar(150)"`
	EmailPersonal string    `gorm:"type:varchar(150)"`
	Note          string    `gorm:"type:text"`
	Audit
}

// FullName returns the display name of the contact
func (c *Contact) FullName() string {
	if c.Prefix != "" {
		return c.Prefix + " " + c.FName + " " + c.LName
	}
	return c.FName + " " + c.LName
}

// Opportunity is a sales lead tracked through to won or lost
type Opportunity struct {
	BaseModel
	Status          OpportunityStatus      `gorm:"not null;default:0;index"`
	Name            string                 `gorm:"type:varchar(250);not null"`
	Note            string                 `gorm:"type:text"`
	AmountEstimated decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	AmountQuoted    decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	AmountWon       decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	CurrencyCode    string                 `gorm:"type:varchar(5);not null"`
	CompanyID       uuid.UUID              `gorm:"type:uuid;not null;index"`
	Company         *Company               `gorm:"foreignKey:CompanyID"`
	SalesUserID     uuid.UUID              `gorm:"type:uuid;not null;index"`
	SalesUser       *User                  `gorm:"foreignKey:SalesUserID"`
	Parts           []*OpportunityPart     `gorm:"foreignKey:OpportunityID"`
	Contacts        []*OpportunityContact  `gorm:"foreignKey:OpportunityID"`
	Proposals       []*OpportunityProposal `gorm:"foreignKey:OpportunityID"`
	Audit
}

// OpportunityPart is a requested scope item of an opportunity
type OpportunityPart struct {
	BaseModel
	Order         int       `gorm:"not null;default:0"`
	Name          string    `gorm:"type:varchar(250);not null"`
	Description   string    `gorm:"type:text"`
	Quoted        bool      `gorm:"not null;default:false"`
	OpportunityID uuid.UUID `gorm:"type:uuid;not null;index"`
	AddUserID     uuid.UUID `gorm:"type:uuid;column:add_user_id"`
	AddDate       time.Time
}

// OpportunityContact links a contact to an opportunity with per-pair metadata
type OpportunityContact struct {
	BaseModel
	Order         int       `gorm:"not null;default:0"`
	CanDecide     bool      `gorm:"not null;default:true"`
	ToQuote       bool      `gorm:"not null;default:true"`
	Note          string    `gorm:"type:text"`
	OpportunityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_opportunity_contact"`
	ContactID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_opportunity_contact"`
	Contact       *Contact  `gorm:"foreignKey:ContactID"`
}

// OpportunityProposal links a user that prepares the proposal for an opportunity
type OpportunityProposal struct {
	BaseModel
	OpportunityID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_opportunity_proposal"`
	ProposalUserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_opportunity_proposal"`
	ProposalUser   *User     `gorm:"foreignKey:ProposalUserID"`
}

// Quote is a priced offer for an opportunity. SubTotal, Optional and Cost are
// written only by the pricing engine.
type Quote struct {
	BaseModel
	Status         QuoteStatus     `gorm:"not null;default:0;index"`
	Name           string          `gorm:"type:varchar(250)"`
	QuoteNumber    string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	QuoteDate      *time.Time
	QuoteExpDate   *time.Time
	QuoteDelivery  string          `gorm:"type:varchar(250)"`
	ParIntro       string          `gorm:"type:text"`
	ParClosing     string          `gorm:"type:text"`
	ParTerms       string          `gorm:"type:text"`
	SubTotal       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Optional       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Cost           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountType   DiscountType    `gorm:"not null;default:0"`
	Discount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountPerc   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxPerc        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CurrencyCode   string          `gorm:"type:varchar(5);not null"`
	OpportunityID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Opportunity    *Opportunity    `gorm:"foreignKey:OpportunityID"`
	SalesUserID    uuid.UUID       `gorm:"type:uuid;not null"`
	RevisedQuoteID *uuid.UUID      `gorm:"type:uuid;index"`
	Parts          []*QuotePart    `gorm:"foreignKey:QuoteID"`
	Contacts       []*QuoteContact `gorm:"foreignKey:QuoteID"`
	Audit
}

// QuoteContact links a contact of the opportunity's company to a quote
type QuoteContact struct {
	BaseModel
	Order     int       `gorm:"not null;default:0"`
	QuoteID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_quote_contact"`
	ContactID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_quote_contact"`
	Contact   *Contact  `gorm:"foreignKey:ContactID"`
}

// QuotePart groups items of a quote. Items of an optional part are totalled apart.
type QuotePart struct {
	BaseModel
	Order             int              `gorm:"not null;default:0"`
	Name              string           `gorm:"type:varchar(250);not null"`
	Description       string           `gorm:"type:text"`
	IsOptional        bool             `gorm:"not null;default:false"`
	QuoteID           uuid.UUID        `gorm:"type:uuid;not null;index"`
	OpportunityPartID *uuid.UUID       `gorm:"type:uuid;index"`
	Items             []*QuotePartItem `gorm:"foreignKey:QuotePartID"`
	AddUserID         uuid.UUID        `gorm:"type:uuid;column:add_user_id"`
	AddDate           time.Time
}

// QuotePartItem is a priced line of a quote part
type QuotePartItem struct {
	BaseModel
	Order        int                  `gorm:"not null;default:0"`
	Item         string               `gorm:"type:varchar(10)"`
	Quantity     decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Unit         string               `gorm:"type:varchar(15)"`
	Description  string               `gorm:"type:text"`
	Fixed        bool                 `gorm:"not null;default:false"`
	FixedPrice   decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	CalUnitPrice decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost     decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	QuotePartID  uuid.UUID            `gorm:"type:uuid;not null;index"`
	Costs        []*QuotePartItemCost `gorm:"foreignKey:QuotePartItemID"`
	AddUserID    uuid.UUID            `gorm:"type:uuid;column:add_user_id"`
	AddDate      time.Time
}

// UnitPrice is the fixed price when the item is fixed, otherwise the calculated one
func (i *QuotePartItem) UnitPrice() decimal.Decimal {
	if i.Fixed {
		return i.FixedPrice
	}
	return i.CalUnitPrice
}

// QuotePartItemCost is one cost component of an item, in its own currency
type QuotePartItemCost struct {
	BaseModel
	Order               int             `gorm:"not null;default:0"`
	Quantity            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Unit                string          `gorm:"type:varchar(15)"`
	Description         string          `gorm:"type:text"`
	Note                string          `gorm:"type:text"`
	CostMaterial        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CostLabor           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CostOther           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Profit              decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CurrencyCode        string          `gorm:"type:varchar(5);not null"`
	Pending             bool            `gorm:"not null;default:false"`
	PendingFollowUpDate *time.Time
	QuotePartItemID     uuid.UUID `gorm:"type:uuid;not null;index"`
	AddUserID           uuid.UUID `gorm:"type:uuid;column:add_user_id"`
	AddDate             time.Time
}

// PO is a purchase order received from a client company
type PO struct {
	BaseModel
	Status       POStatus        `gorm:"not null;default:10;index"`
	PONumber     string          `gorm:"type:varchar(100);not null;column:po_number"`
	PODate       *time.Time      `gorm:"column:po_date"`
	DeliveryDate *time.Time
	SubTotal     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Discount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountType DiscountType    `gorm:"not null;default:0"`
	DiscountPerc decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxPerc      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Cost         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CurrencyCode string          `gorm:"type:varchar(5);not null"`
	CompanyID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Company      *Company        `gorm:"foreignKey:CompanyID"`
	BuyerID      uuid.UUID       `gorm:"type:uuid;not null"`
	Buyer        *Contact        `gorm:"foreignKey:BuyerID"`
	SalesUserID  uuid.UUID       `gorm:"type:uuid;not null"`
	Items        []*POItem       `gorm:"foreignKey:POID"`
	Audit
}

// TableName keeps the table name readable
func (PO) TableName() string {
	return "pos"
}

// POItem is a line of a purchase order, optionally sourced from a quote item
type POItem struct {
	BaseModel
	Order           int             `gorm:"not null;default:0"`
	Item            string          `gorm:"type:varchar(10)"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Unit            string          `gorm:"type:varchar(15)"`
	Description     string          `gorm:"type:text"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	POID            uuid.UUID       `gorm:"type:uuid;not null;index;column:po_id"`
	QuotePartItemID *uuid.UUID      `gorm:"type:uuid"`
	AddUserID       uuid.UUID       `gorm:"type:uuid;column:add_user_id"`
	AddDate         time.Time
}

// TableName keeps the table name readable
func (POItem) TableName() string {
	return "po_items"
}

// Task is a to-do owned by a responsible user, attached to at most one document
type Task struct {
	BaseModel
	Status        TaskStatus `gorm:"not null;default:10;index"`
	Name          string     `gorm:"type:varchar(255);not null"`
	Description   string     `gorm:"type:text"`
	Progress      int        `gorm:"not null;default:0"`
	StartDate     time.Time  `gorm:"not null"`
	DueDate       *time.Time
	EndDate       *time.Time
	ResponsibleID uuid.UUID  `gorm:"type:uuid;not null;index"`
	OpportunityID *uuid.UUID `gorm:"type:uuid;index"`
	QuoteID       *uuid.UUID `gorm:"type:uuid;index"`
	POID          *uuid.UUID `gorm:"type:uuid;index;column:po_id"`
	Audit
}

// Currency is an exchange-rate row relative to the base currency
type Currency struct {
	Code          string          `gorm:"type:varchar(5);primaryKey"`
	Selected      bool            `gorm:"not null;default:false"`
	Rate          decimal.Decimal `gorm:"type:decimal(18,8);not null;default:0"`
	Symbol        string          `gorm:"type:varchar(10)"`
	Name          string          `gorm:"type:varchar(100)"`
	SymbolNative  string          `gorm:"type:varchar(10)"`
	DecimalDigits int             `gorm:"not null;default:2"`
	Rounding      decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	Date          time.Time
}

// NumberSequence tracks the last issued document number per scope and period
type NumberSequence struct {
	ID           uint      `gorm:"primaryKey"`
	Scope        string    `gorm:"type:varchar(30);not null;uniqueIndex:idx_sequence_period"`
	Period       string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_sequence_period"`
	LastSequence int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}
