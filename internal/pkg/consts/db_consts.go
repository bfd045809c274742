package consts

const (
	LoanIssueCollection  = "LoanIssue"
	MacroParamsCollection = "MacroParams"
	CreditFactCollection = "CreditFactHistory"
)
