package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnbalanced     = errors.New("journal entry debits and credits do not balance")
	ErrTooFewLines    = errors.New("journal entry needs at least two lines")
	ErrUnknownAccount = errors.New("unknown account code")
	ErrEmptyLine      = errors.New("journal line must carry a debit or a credit")
)

type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountRevenue   AccountType = "revenue"
	AccountExpense   AccountType = "expense"
)

// Account is one row of the chart of accounts. BalanceCents is kept on the
// account's normal side: positive means a debit balance for asset/expense
// accounts and a credit balance for the rest.
type Account struct {
	Code         string      `json:"code"`
	Name         string      `json:"name"`
	Type         AccountType `json:"type"`
	BalanceCents int64       `json:"balance_cents"`
}

func (a Account) debitNormal() bool {
	return a.Type == AccountAsset || a.Type == AccountExpense
}

type JournalLine struct {
	AccountCode string `json:"account_code"`
	DebitCents  int64  `json:"debit_cents"`
	CreditCents int64  `json:"credit_cents"`
}

type JournalEntry struct {
	ID       string        `json:"id"`
	Memo     string        `json:"memo"`
	Lines    []JournalLine `json:"lines"`
	PostedAt time.Time     `json:"posted_at"`
}

// Ledger is the in-memory double-entry book. Posting validates and applies
// balance updates under one lock.
type Ledger struct {
	mu       sync.Mutex
	accounts map[string]*Account
	codes    []string // chart order, for stable listings
	entries  []JournalEntry
}

func New() *Ledger {
	return &Ledger{accounts: map[string]*Account{}}
}

// NewSeeded returns a ledger with the standard small-business chart.
func NewSeeded() *Ledger {
	l := New()
	for _, a := range []Account{
		{Code: "1000", Name: "Cash", Type: AccountAsset},
		{Code: "1010", Name: "Bank Account", Type: AccountAsset},
		{Code: "1100", Name: "Accounts Receivable", Type: AccountAsset},
		{Code: "1200", Name: "Inventory", Type: AccountAsset},
		{Code: "2000", Name: "Accounts Payable", Type: AccountLiability},
		{Code: "2100", Name: "Sales Tax Payable", Type: AccountLiability},
		{Code: "3000", Name: "Owner Equity", Type: AccountEquity},
		{Code: "4000", Name: "Sales Revenue", Type: AccountRevenue},
		{Code: "4100", Name: "Other Income", Type: AccountRevenue},
		{Code: "5000", Name: "Cost of Goods Sold", Type: AccountExpense},
		{Code: "6000", Name: "Rent Expense", Type: AccountExpense},
		{Code: "6100", Name: "Utilities Expense", Type: AccountExpense},
		{Code: "6200", Name: "Salaries Expense", Type: AccountExpense},
		{Code: "6900", Name: "Miscellaneous Expense", Type: AccountExpense},
	} {
		acct := a
		l.accounts[acct.Code] = &acct
		l.codes = append(l.codes, acct.Code)
	}
	return l
}

func (l *Ledger) Accounts() []Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Account, 0, len(l.codes))
	for _, code := range l.codes {
		out = append(out, *l.accounts[code])
	}
	return out
}

func (l *Ledger) Account(code string) (Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[code]
	if !ok {
		return Account{}, ErrUnknownAccount
	}
	return *a, nil
}

// Post validates and books a journal entry. Every line must name a known
// account and carry exactly one positive side, and total debits must equal
// total credits.
func (l *Ledger) Post(memo string, lines []JournalLine) (JournalEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(lines) < 2 {
		return JournalEntry{}, ErrTooFewLines
	}
	var debits, credits int64
	for _, line := range lines {
		if _, ok := l.accounts[line.AccountCode]; !ok {
			return JournalEntry{}, fmt.Errorf("%w: %s", ErrUnknownAccount, line.AccountCode)
		}
		if line.DebitCents < 0 || line.CreditCents < 0 {
			return JournalEntry{}, ErrEmptyLine
		}
		oneSide := (line.DebitCents > 0) != (line.CreditCents > 0)
		if !oneSide {
			return JournalEntry{}, ErrEmptyLine
		}
		debits += line.DebitCents
		credits += line.CreditCents
	}
	if debits != credits {
		return JournalEntry{}, fmt.Errorf("%w: debits %d, credits %d", ErrUnbalanced, debits, credits)
	}

	for _, line := range lines {
		acct := l.accounts[line.AccountCode]
		delta := line.DebitCents - line.CreditCents
		if acct.debitNormal() {
			acct.BalanceCents += delta
		} else {
			acct.BalanceCents -= delta
		}
	}

	entry := JournalEntry{
		ID:       "je-" + uuid.NewString(),
		Memo:     memo,
		Lines:    lines,
		PostedAt: time.Now().UTC(),
	}
	l.entries = append(l.entries, entry)
	return entry, nil
}

// PostSale books a completed cash sale: cash in against sales revenue and
// collected tax. A discount larger than the taxable base leaves the revenue
// share negative; the shortfall is debited to the revenue account so the
// entry still balances.
func (l *Ledger) PostSale(orderID string, totalCents, taxCents int64) (JournalEntry, error) {
	revenue := totalCents - taxCents
	lines := []JournalLine{{AccountCode: "1000", DebitCents: totalCents}}
	switch {
	case revenue > 0:
		lines = append(lines, JournalLine{AccountCode: "4000", CreditCents: revenue})
	case revenue < 0:
		lines = append(lines, JournalLine{AccountCode: "4000", DebitCents: -revenue})
	}
	if taxCents > 0 {
		lines = append(lines, JournalLine{AccountCode: "2100", CreditCents: taxCents})
	}
	return l.Post("POS sale "+orderID, lines)
}

// PostGoodsReceipt books received stock at cost into inventory on account.
func (l *Ledger) PostGoodsReceipt(grnID string, valueCents int64) (JournalEntry, error) {
	return l.Post("Goods received "+grnID, []JournalLine{
		{AccountCode: "1200", DebitCents: valueCents},
		{AccountCode: "2000", CreditCents: valueCents},
	})
}

func (l *Ledger) Entries() []JournalEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]JournalEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// TrialBalanceRow shows one account's balance on its debit or credit side.
type TrialBalanceRow struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	DebitCents  int64  `json:"debit_cents"`
	CreditCents int64  `json:"credit_cents"`
}

type TrialBalance struct {
	Rows             []TrialBalanceRow `json:"rows"`
	TotalDebitCents  int64             `json:"total_debit_cents"`
	TotalCreditCents int64             `json:"total_credit_cents"`
}

// TrialBalanceReport lists every account with a non-zero balance. Total
// debits always equal total credits when every entry balanced.
func (l *Ledger) TrialBalanceReport() TrialBalance {
	l.mu.Lock()
	defer l.mu.Unlock()

	var tb TrialBalance
	for _, code := range l.codes {
		a := l.accounts[code]
		if a.BalanceCents == 0 {
			continue
		}
		row := TrialBalanceRow{Code: a.Code, Name: a.Name}
		onDebitSide := a.debitNormal() == (a.BalanceCents > 0)
		amount := a.BalanceCents
		if amount < 0 {
			amount = -amount
		}
		if onDebitSide {
			row.DebitCents = amount
			tb.TotalDebitCents += amount
		} else {
			row.CreditCents = amount
			tb.TotalCreditCents += amount
		}
		tb.Rows = append(tb.Rows, row)
	}
	sort.Slice(tb.Rows, func(i, j int) bool { return tb.Rows[i].Code < tb.Rows[j].Code })
	return tb
}
