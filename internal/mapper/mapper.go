package mapper

import (
	"time"

	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/pricing"
)

const timeLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ToUserDTO converts User to UserDTO. The password hash never leaves the service.
func ToUserDTO(u *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:         u.ID,
		FName:      u.FName,
		LName:      u.LName,
		FullName:   u.FullName(),
		FormalName: u.FormalName(),
		Email:      u.Email,
		Title:      u.Title,
		Phone:      u.Phone,
		Avatar:     u.Avatar,
		Access:     u.Access,
		Roles: domain.UserRoles{
			System:     u.IsRoleSystem,
			Admin:      u.IsRoleAdmin,
			Sales:      u.IsRoleSales,
			Estimator:  u.IsRoleEstimator,
			PM:         u.IsRolePM,
			Service:    u.IsRoleService,
			Accounting: u.IsRoleAccounting,
		},
		Active:  u.Active,
		AddDate: formatTime(u.AddDate),
	}
}

// ToCompanyDTO converts Company to CompanyDTO, with contacts when loaded
func ToCompanyDTO(c *domain.Company) domain.CompanyDTO {
	dto := domain.CompanyDTO{
		ID:           c.ID,
		Name:         c.Name,
		Street1:      c.Street1,
		Street2:      c.Street2,
		City:         c.City,
		State:        c.State,
		Region:       c.Region,
		ZipCode:      c.ZipCode,
		TaxID:        c.TaxID,
		Phone:        c.Phone,
		Phone2:       c.Phone2,
		IsClient:     c.IsClient,
		IsPartner:    c.IsPartner,
		IsSupplier:   c.IsSupplier,
		IsCompetitor: c.IsCompetitor,
		SalesUserID:  c.SalesUserID,
		Active:       c.Active,
		AddUserID:    c.AddUserID,
		AddDate:      formatTime(c.AddDate),
	}
	for i := range c.Contacts {
		dto.Contacts = append(dto.Contacts, ToContactDTO(&c.Contacts[i]))
	}
	return dto
}

// ToContactDTO converts Contact to ContactDTO
func ToContactDTO(c *domain.Contact) domain.ContactDTO {
	return domain.ContactDTO{
		ID:            c.ID,
		CompanyID:     c.CompanyID,
		FullName:      c.FullName(),
		Prefix:        c.Prefix,
		FName:         c.FName,
		LName:         c.LName,
		Salutation:    c.Salutation,
		Title:         c.Title,
		Department:    c.Department,
		Phone:         c.Phone,
		PhonePersonal: c.PhonePersonal,
		Email:         c.Email,
		EmailPersonal: c.EmailPersonal,
		Note:          c.Note,
		Active:        c.Active,
		AddUserID:     c.AddUserID,
		AddDate:       formatTime(c.AddDate),
	}
}

// ToOpportunityDTO converts Opportunity to OpportunityDTO with the derived amount
func ToOpportunityDTO(o *domain.Opportunity) domain.OpportunityDTO {
	dto := domain.OpportunityDTO{
		ID:              o.ID,
		Status:          o.Status,
		StrStatus:       o.Status.String(),
		Name:            o.Name,
		Note:            o.Note,
		CurrencyCode:    o.CurrencyCode,
		AmountEstimated: o.AmountEstimated,
		AmountQuoted:    o.AmountQuoted,
		AmountWon:       o.AmountWon,
		Amount:          pricing.OpportunityAmount(o),
		CompanyID:       o.CompanyID,
		SalesUserID:     o.SalesUserID,
		Parts:           []domain.OpportunityPartDTO{},
		Contacts:        []domain.OpportunityContactDTO{},
		Proposals:       []domain.OpportunityProposalDTO{},
		Active:          o.Active,
		AddUserID:       o.AddUserID,
		Date:            formatTime(o.AddDate),
	}
	for _, p := range o.Parts {
		dto.Parts = append(dto.Parts, domain.OpportunityPartDTO{
			ID:          p.ID,
			Order:       p.Order,
			Name:        p.Name,
			Description: p.Description,
			Quoted:      p.Quoted,
		})
	}
	for _, c := range o.Contacts {
		cd := domain.OpportunityContactDTO{
			ID:        c.ID,
			ContactID: c.ContactID,
			CanDecide: c.CanDecide,
			ToQuote:   c.ToQuote,
			Note:      c.Note,
		}
		if c.Contact != nil {
			cd.FullName = c.Contact.FullName()
		}
		dto.Contacts = append(dto.Contacts, cd)
	}
	for _, p := range o.Proposals {
		pd := domain.OpportunityProposalDTO{ID: p.ID, ProposalUserID: p.ProposalUserID}
		if p.ProposalUser != nil {
			pd.FullName = p.ProposalUser.FullName()
		}
		dto.Proposals = append(dto.Proposals, pd)
	}
	return dto
}

// ToQuoteDTO converts the quote tree to QuoteDTO with tax, total and profit derived
func ToQuoteDTO(q *domain.Quote) domain.QuoteDTO {
	f := pricing.QuoteFigures(q)
	dto := domain.QuoteDTO{
		ID:             q.ID,
		Status:         q.Status,
		StrStatus:      q.Status.String(),
		Name:           q.Name,
		QuoteNumber:    q.QuoteNumber,
		QuoteDate:      q.QuoteDate,
		Date:           q.QuoteDate,
		QuoteExpDate:   q.QuoteExpDate,
		QuoteDelivery:  q.QuoteDelivery,
		ParIntro:       q.ParIntro,
		ParClosing:     q.ParClosing,
		ParTerms:       q.ParTerms,
		CurrencyCode:   q.CurrencyCode,
		SubTotal:       q.SubTotal,
		Optional:       q.Optional,
		Cost:           q.Cost,
		DiscountType:   q.DiscountType,
		Discount:       q.Discount,
		DiscountPerc:   q.DiscountPerc,
		TaxPerc:        q.TaxPerc,
		TaxAmount:      f.TaxAmount,
		Total:          f.Total,
		Profit:         f.Profit,
		ProfitPerc:     f.ProfitPerc,
		Amount:         f.Total,
		OpportunityID:  q.OpportunityID,
		SalesUserID:    q.SalesUserID,
		RevisedQuoteID: q.RevisedQuoteID,
		Parts:          []domain.QuotePartDTO{},
		Contacts:       []domain.QuoteContactDTO{},
		Active:         q.Active,
		AddUserID:      q.AddUserID,
		AddDate:        formatTime(q.AddDate),
	}
	for _, c := range q.Contacts {
		cd := domain.QuoteContactDTO{ID: c.ID, ContactID: c.ContactID}
		if c.Contact != nil {
			cd.FullName = c.Contact.FullName()
		}
		dto.Contacts = append(dto.Contacts, cd)
	}
	for _, p := range q.Parts {
		dto.Parts = append(dto.Parts, toQuotePartDTO(p))
	}
	return dto
}

func toQuotePartDTO(p *domain.QuotePart) domain.QuotePartDTO {
	dto := domain.QuotePartDTO{
		ID:                p.ID,
		Order:             p.Order,
		Name:              p.Name,
		Description:       p.Description,
		IsOptional:        p.IsOptional,
		OpportunityPartID: p.OpportunityPartID,
		Items:             []domain.QuotePartItemDTO{},
	}
	for _, item := range p.Items {
		id := domain.QuotePartItemDTO{
			ID:           item.ID,
			Order:        item.Order,
			Item:         item.Item,
			Quantity:     item.Quantity,
			Unit:         item.Unit,
			Description:  item.Description,
			Fixed:        item.Fixed,
			FixedPrice:   item.FixedPrice,
			CalUnitPrice: item.CalUnitPrice,
			UnitCost:     item.UnitCost,
			UnitPrice:    pricing.ItemUnitPrice(item),
			SubTotal:     pricing.ItemSubTotal(item),
			Costs:        []domain.QuotePartItemCostDTO{},
		}
		for _, c := range item.Costs {
			id.Costs = append(id.Costs, domain.QuotePartItemCostDTO{
				ID:                  c.ID,
				Order:               c.Order,
				Quantity:            c.Quantity,
				Unit:                c.Unit,
				Description:         c.Description,
				Note:                c.Note,
				CostMaterial:        c.CostMaterial,
				CostLabor:           c.CostLabor,
				CostOther:           c.CostOther,
				Profit:              c.Profit,
				CurrencyCode:        c.CurrencyCode,
				Pending:             c.Pending,
				PendingFollowUpDate: c.PendingFollowUpDate,
			})
		}
		dto.Items = append(dto.Items, id)
	}
	return dto
}

// ToPODTO converts PO to PODTO with the status-gated amount
func ToPODTO(po *domain.PO) domain.PODTO {
	f := pricing.POFigures(po)
	dto := domain.PODTO{
		ID:           po.ID,
		Status:       po.Status,
		StrStatus:    po.Status.String(),
		PONumber:     po.PONumber,
		PODate:       po.PODate,
		DeliveryDate: po.DeliveryDate,
		CurrencyCode: po.CurrencyCode,
		SubTotal:     po.SubTotal,
		Discount:     po.Discount,
		TaxPerc:      po.TaxPerc,
		TaxAmount:    f.TaxAmount,
		Total:        f.Total,
		Cost:         po.Cost,
		Profit:       f.Profit,
		ProfitPerc:   f.ProfitPerc,
		Amount:       f.Amount,
		CompanyID:    po.CompanyID,
		BuyerID:      po.BuyerID,
		SalesUserID:  po.SalesUserID,
		Items:        []domain.POItemDTO{},
		Active:       po.Active,
		AddUserID:    po.AddUserID,
		AddDate:      formatTime(po.AddDate),
	}
	for _, item := range po.Items {
		dto.Items = append(dto.Items, domain.POItemDTO{
			ID:              item.ID,
			Order:           item.Order,
			Item:            item.Item,
			Quantity:        item.Quantity,
			Unit:            item.Unit,
			Description:     item.Description,
			UnitPrice:       item.UnitPrice,
			UnitCost:        item.UnitCost,
			SubTotal:        item.Quantity.Mul(item.UnitPrice),
			QuotePartItemID: item.QuotePartItemID,
		})
	}
	return dto
}

// ToTaskDTO converts Task to TaskDTO
func ToTaskDTO(t *domain.Task) domain.TaskDTO {
	return domain.TaskDTO{
		ID:            t.ID,
		Status:        t.Status,
		StrStatus:     t.Status.String(),
		Name:          t.Name,
		Description:   t.Description,
		Progress:      t.Progress,
		StartDate:     t.StartDate,
		DueDate:       t.DueDate,
		EndDate:       t.EndDate,
		ResponsibleID: t.ResponsibleID,
		OpportunityID: t.OpportunityID,
		QuoteID:       t.QuoteID,
		POID:          t.POID,
		Active:        t.Active,
		AddUserID:     t.AddUserID,
		AddDate:       formatTime(t.AddDate),
	}
}

// ToCurrencyDTO converts Currency to CurrencyDTO
func ToNumberSequenceDTO(n *domain.NumberSequence) domain.NumberSequenceDTO {
	return domain.NumberSequenceDTO{
		Scope:        n.Scope,
		Period:       n.Period,
		LastSequence: n.LastSequence,
		UpdatedAt:    formatTime(n.UpdatedAt),
	}
}

func ToCurrencyDTO(c *domain.Currency) domain.CurrencyDTO {
	return domain.CurrencyDTO{
		Code:          c.Code,
		Name:          c.Name,
		Symbol:        c.Symbol,
		SymbolNative:  c.SymbolNative,
		DecimalDigits: c.DecimalDigits,
		Rounding:      c.Rounding,
		Rate:          c.Rate,
		Selected:      c.Selected,
		Date:          formatTime(c.Date),
	}
}
