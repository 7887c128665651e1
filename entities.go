package tenantkit

import (
	"time"

	"github.com/uptrace/bun"
)

// TenantModel carries the columns every organization-scoped record shares.
// OrganizationID is set by the storage facade at creation and is never
// reassignable: Create discards any caller-supplied value and Update pins
// the stored one.
type TenantModel struct {
	ID             string    `bun:"id,pk,type:uuid"`
	OrganizationID string    `bun:"organization_id,notnull,type:uuid"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,notnull"`
}

func (m *TenantModel) tenantModel() *TenantModel { return m }

// TenantRecord is implemented by every organization-scoped record through
// its embedded TenantModel. The facade's generic operations use it to reach
// the shared columns without reflection.
type TenantRecord interface {
	tenantModel() *TenantModel
}

// ClientCompany is a client business the organization works with.
// Optional text fields store as NULL when empty so breakdown buckets can
// exclude them cleanly.
type ClientCompany struct {
	bun.BaseModel `bun:"table:client_companies,alias:cc"`
	TenantModel

	Name     string `bun:"name,notnull"`
	Website  string `bun:"website,nullzero"`
	Industry string `bun:"industry,nullzero"`
	City     string `bun:"city,nullzero"`
	Country  string `bun:"country,nullzero"`
	Phone    string `bun:"phone,nullzero"`
}

// Contact is a person at a client company.
type Contact struct {
	bun.BaseModel `bun:"table:contacts,alias:ct"`
	TenantModel

	CompanyID string `bun:"company_id,type:uuid,nullzero"`
	FirstName string `bun:"first_name,notnull"`
	LastName  string `bun:"last_name,nullzero"`
	Email     string `bun:"email,nullzero"`
	Phone     string `bun:"phone,nullzero"`
	JobTitle  string `bun:"job_title,nullzero"`
}

// Deal is a sales opportunity tied to a client company.
type Deal struct {
	bun.BaseModel `bun:"table:deals,alias:d"`
	TenantModel

	CompanyID  string `bun:"company_id,type:uuid,nullzero"`
	ContactID  string `bun:"contact_id,type:uuid,nullzero"`
	Title      string `bun:"title,notnull"`
	Stage      string `bun:"stage,notnull"`
	ValueCents int64  `bun:"value_cents"`
	Currency   string `bun:"currency,nullzero"`
}

// Deal stages. Stage is also a breakdown dimension for deal statistics.
const (
	DealStageLead      = "lead"
	DealStageQualified = "qualified"
	DealStageProposal  = "proposal"
	DealStageWon       = "won"
	DealStageLost      = "lost"
)

// Invoice is a billing document issued against a client company.
type Invoice struct {
	bun.BaseModel `bun:"table:invoices,alias:i"`
	TenantModel

	CompanyID   string    `bun:"company_id,type:uuid,nullzero"`
	DealID      string    `bun:"deal_id,type:uuid,nullzero"`
	Number      string    `bun:"number,notnull"`
	Status      string    `bun:"status,notnull"`
	AmountCents int64     `bun:"amount_cents"`
	Currency    string    `bun:"currency,nullzero"`
	DueDate     time.Time `bun:"due_date,nullzero"`
}

// Invoice statuses.
const (
	InvoiceStatusDraft   = "draft"
	InvoiceStatusSent    = "sent"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
	InvoiceStatusVoid    = "void"
)
