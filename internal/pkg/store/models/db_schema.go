package models

import (
	"time"
)

// Loan is one immutable record of the issued-loan portfolio. The
// origination generator owns these documents; the simulation only
// reads them.
type Loan struct {
	LoanID          int64     `bson:"loan_id"`
	IssueDate       time.Time `bson:"issue_date"`
	CohortMonth     time.Time `bson:"cohort_month"`
	LoanAmount      float64   `bson:"loan_amount"`
	InterestRate    float64   `bson:"interest_rate"`
	TermMonths      int       `bson:"term_months"`
	ProductType     string    `bson:"product_type"`
	SeasonKIssue    float64   `bson:"season_k_issue"`
	SeasonKAmount   float64   `bson:"season_k_amount"`
	SeasonPeriod    string    `bson:"season_period_name"`
	IssuePolicyRate float64   `bson:"issue_policy_rate"`
	IssueEmployment float64   `bson:"issue_employment_rate"`
	IssueUnemployment float64 `bson:"issue_unemployment_rate"`
	IssueMacroIndex float64   `bson:"issue_macro_index"`
	BatchID         string    `bson:"batch_id"`
}

// MacroSnapshot is one calendar month of macro inputs, keyed by
// year_month in YYYY-MM form.
type MacroSnapshot struct {
	YearMonth        string  `bson:"year_month"`
	PolicyRate       float64 `bson:"policy_rate"`
	EmploymentRate   float64 `bson:"employment_rate"`
	UnemploymentRate float64 `bson:"unemployment_rate"`
	MacroIndex       float64 `bson:"macro_index"`
}

// MonthlyFactRecord is one emitted loan-month of the simulation,
// immutable once written, unique per (loan_id, period_month, batch_id).
type MonthlyFactRecord struct {
	LoanID            int64     `bson:"loan_id" json:"loan_id"`
	PeriodMonth       string    `bson:"period_month" json:"period_month"`
	MOB               int       `bson:"mob" json:"mob"`
	BalancePrincipal  float64   `bson:"balance_principal" json:"balance_principal"`
	OverduePrincipal  float64   `bson:"overdue_principal" json:"overdue_principal"`
	InterestScheduled float64   `bson:"interest_scheduled" json:"interest_scheduled"`
	OverdueInterest   float64   `bson:"overdue_interest" json:"overdue_interest"`
	ScheduledPayment  float64   `bson:"scheduled_payment" json:"scheduled_payment"`
	ActualPayment     float64   `bson:"actual_payment" json:"actual_payment"`
	DPDBucket         string    `bson:"dpd_bucket" json:"dpd_bucket"`
	OverdueDays       int       `bson:"overdue_days" json:"overdue_days"`
	Status            string    `bson:"status" json:"status"`
	MigrationScenario string    `bson:"migration_scenario,omitempty" json:"migration_scenario,omitempty"`
	BatchID           string    `bson:"batch_id" json:"batch_id"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
}
