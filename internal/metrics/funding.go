package metrics

import (
	"github.com/sells-group/portfolio-report/internal/aggregate"
	"github.com/sells-group/portfolio-report/internal/model"
)

// FundingStructure splits project funding into equity and debt.
type FundingStructure struct {
	TotalEquity      float64     `json:"total_equity"`
	TotalDebt        float64     `json:"total_debt"`
	TotalFunding     float64     `json:"total_funding"`
	EquityShare      float64     `json:"equity_share"`
	DebtShare        float64     `json:"debt_share"`
	DebtEquityRatio  float64     `json:"debt_equity_ratio"`
	Investors        int         `json:"investors"`
	Investments      int         `json:"investments"`
	ByInvestmentType []Breakdown `json:"by_investment_type"`
	ByBank           []Breakdown `json:"by_bank"`
}

// ComputeFundingStructure computes the funding structure group.
func ComputeFundingStructure(in Input) FundingStructure {
	f := FundingStructure{
		TotalEquity: totalEquity(in),
		TotalDebt:   totalDebt(in),
		Investors:   len(in.Snap.Investors),
		Investments: len(in.Snap.ProjectInvestments),
	}
	f.TotalFunding = aggregate.Total(f.TotalEquity, f.TotalDebt)
	f.EquityShare = aggregate.Percent(f.TotalEquity, f.TotalFunding)
	f.DebtShare = aggregate.Percent(f.TotalDebt, f.TotalFunding)
	f.DebtEquityRatio = aggregate.Ratio(f.TotalDebt, f.TotalEquity)

	types := newBreakdown()
	for _, inv := range in.Snap.ProjectInvestments {
		types.add(or(inv.InvestmentType, unassigned), inv.Amount)
	}
	f.ByInvestmentType = types.list()

	names := bankNames(in.Snap.Banks)
	banks := newBreakdown()
	for _, c := range in.Snap.BankCredits {
		banks.add(bankName(names, c.BankID), c.Amount)
	}
	f.ByBank = banks.list()
	return f
}

// CompanyCredits summarizes bank credits, credit lines and cesija payments.
type CompanyCredits struct {
	Credits              int         `json:"credits"`
	ActiveCredits        int         `json:"active_credits"`
	TotalAmount          float64     `json:"total_amount"`
	TotalUsed            float64     `json:"total_used"`
	TotalRepaid          float64     `json:"total_repaid"`
	Outstanding          float64     `json:"outstanding"`
	Available            float64     `json:"available"`
	Utilization          float64     `json:"utilization"`
	WeightedInterestRate float64     `json:"weighted_interest_rate"`
	AllocatedToProjects  float64     `json:"allocated_to_projects"`
	CreditLines          int         `json:"credit_lines"`
	CreditLimit          float64     `json:"credit_limit"`
	CreditDrawn          float64     `json:"credit_drawn"`
	CesijaCount          int         `json:"cesija_count"`
	CesijaAmount         float64     `json:"cesija_amount"`
	Rows                 []CreditRow `json:"rows"`
}

// CreditRow is one bank credit.
type CreditRow struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Bank         string  `json:"bank"`
	Amount       float64 `json:"amount"`
	Used         float64 `json:"used"`
	Repaid       float64 `json:"repaid"`
	Outstanding  float64 `json:"outstanding"`
	Utilization  float64 `json:"utilization"`
	InterestRate float64 `json:"interest_rate"`
}

// ComputeCompanyCredits computes the company credits group.
func ComputeCompanyCredits(in Input) CompanyCredits {
	c := CompanyCredits{
		Credits:     len(in.Snap.BankCredits),
		CreditLines: len(in.Snap.CreditLines),
	}
	names := bankNames(in.Snap.Banks)

	var amount, used, repaid, weighted aggregate.Sum
	for _, bc := range in.Snap.BankCredits {
		if bc.Status == model.StatusActive {
			c.ActiveCredits++
		}
		amount.Add(bc.Amount)
		used.Add(bc.UsedAmount)
		repaid.Add(bc.RepaidAmount)
		weighted.Add(bc.Amount * bc.InterestRate)
		c.Rows = append(c.Rows, CreditRow{
			ID:           bc.ID,
			Name:         bc.CreditName,
			Type:         bc.CreditType,
			Bank:         bankName(names, bc.BankID),
			Amount:       bc.Amount,
			Used:         bc.UsedAmount,
			Repaid:       bc.RepaidAmount,
			Outstanding:  nonNegative(aggregate.Diff(bc.UsedAmount, bc.RepaidAmount)),
			Utilization:  aggregate.Percent(bc.UsedAmount, bc.Amount),
			InterestRate: bc.InterestRate,
		})
	}
	c.TotalAmount = amount.Float()
	c.TotalUsed = used.Float()
	c.TotalRepaid = repaid.Float()
	c.Outstanding = nonNegative(aggregate.Diff(c.TotalUsed, c.TotalRepaid))
	c.Available = nonNegative(aggregate.Diff(c.TotalAmount, c.TotalUsed))
	c.Utilization = aggregate.Percent(c.TotalUsed, c.TotalAmount)
	c.WeightedInterestRate = aggregate.Ratio(weighted.Float(), c.TotalAmount)

	var allocated aggregate.Sum
	for _, a := range in.Snap.CreditAllocations {
		if a.ProjectID != nil {
			allocated.Add(a.AllocatedAmount)
		}
	}
	c.AllocatedToProjects = allocated.Float()

	var limit, drawn aggregate.Sum
	for _, l := range in.Snap.CreditLines {
		limit.Add(l.CreditLimit)
		drawn.Add(l.DrawnAmount)
	}
	c.CreditLimit = limit.Float()
	c.CreditDrawn = drawn.Float()

	c.CesijaCount, c.CesijaAmount = cesija(in.Facts.Payments)
	return c
}

func cesija(payments []model.Payment) (int, float64) {
	n := 0
	var s aggregate.Sum
	for _, p := range payments {
		if p.IsCesija {
			n++
			s.Add(p.Amount)
		}
	}
	return n, s.Float()
}

// CompanyLoans summarizes inter-company loans.
type CompanyLoans struct {
	Loans         int     `json:"loans"`
	ActiveLoans   int     `json:"active_loans"`
	TotalAmount   float64 `json:"total_amount"`
	TotalRepaid   float64 `json:"total_repaid"`
	Outstanding   float64 `json:"outstanding"`
	RepaymentRate float64 `json:"repayment_rate"`
}

// ComputeCompanyLoans computes the company loans group.
func ComputeCompanyLoans(in Input) CompanyLoans {
	l := CompanyLoans{Loans: len(in.Snap.CompanyLoans)}
	var amount, repaid aggregate.Sum
	for _, loan := range in.Snap.CompanyLoans {
		if loan.Status == model.StatusActive {
			l.ActiveLoans++
		}
		amount.Add(loan.Amount)
		repaid.Add(loan.RepaidAmount)
	}
	l.TotalAmount = amount.Float()
	l.TotalRepaid = repaid.Float()
	l.Outstanding = nonNegative(aggregate.Diff(l.TotalAmount, l.TotalRepaid))
	l.RepaymentRate = aggregate.Percent(l.TotalRepaid, l.TotalAmount)
	return l
}

// BankAccounts summarizes company bank balances.
type BankAccounts struct {
	Accounts     int         `json:"accounts"`
	TotalBalance float64     `json:"total_balance"`
	ByBank       []Breakdown `json:"by_bank"`
}

// ComputeBankAccounts computes the bank accounts group.
func ComputeBankAccounts(in Input) BankAccounts {
	b := BankAccounts{Accounts: len(in.Snap.BankAccounts)}
	names := bankNames(in.Snap.Banks)
	banks := newBreakdown()
	var total aggregate.Sum
	for _, a := range in.Snap.BankAccounts {
		total.Add(a.Balance)
		banks.add(bankName(names, a.BankID), a.Balance)
	}
	b.TotalBalance = total.Float()
	b.ByBank = banks.list()
	return b
}

func bankNames(banks []model.Bank) map[string]string {
	out := make(map[string]string, len(banks))
	for _, b := range banks {
		out[b.ID] = b.Name
	}
	return out
}

func bankName(names map[string]string, id *string) string {
	if id == nil {
		return unassigned
	}
	if n, ok := names[*id]; ok && n != "" {
		return n
	}
	return *id
}

func nonNegative(v float64) float64 {
	return max(v, 0)
}
