package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rifat-karim/bizpilot/services/accounting-service/internal/ledger"
)

type AccountingHandler struct {
	ledger *ledger.Ledger
	logger *slog.Logger
}

func New(l *ledger.Ledger, logger *slog.Logger) *AccountingHandler {
	return &AccountingHandler{ledger: l, logger: logger}
}

func (h *AccountingHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": h.ledger.Accounts()})
}

type journalLineRequest struct {
	AccountCode string   `json:"account_code"`
	DebitCents  looseInt `json:"debit_cents"`
	CreditCents looseInt `json:"credit_cents"`
}

type journalEntryRequest struct {
	Memo  string               `json:"memo"`
	Lines []journalLineRequest `json:"lines"`
}

// JournalEntries handles GET (list) and POST (validate and book an entry).
func (h *AccountingHandler) JournalEntries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"entries": h.ledger.Entries()})
	case http.MethodPost:
		var req journalEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		lines := make([]ledger.JournalLine, 0, len(req.Lines))
		for _, l := range req.Lines {
			lines = append(lines, ledger.JournalLine{
				AccountCode: strings.TrimSpace(l.AccountCode),
				DebitCents:  int64(l.DebitCents),
				CreditCents: int64(l.CreditCents),
			})
		}
		entry, err := h.ledger.Post(strings.TrimSpace(req.Memo), lines)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type expenseRequest struct {
	AmountCents        looseInt `json:"amount_cents"`
	ExpenseAccountCode string   `json:"expense_account_code"`
	PaymentAccountCode string   `json:"payment_account_code"`
	Memo               string   `json:"memo"`
}

// RecordExpense books an expense as a balanced entry: debit the expense
// account, credit the payment account.
func (h *AccountingHandler) RecordExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	amount := int64(req.AmountCents)
	if amount <= 0 {
		http.Error(w, "positive amount_cents required", http.StatusBadRequest)
		return
	}
	expenseAcct := strings.TrimSpace(req.ExpenseAccountCode)
	if expenseAcct == "" {
		expenseAcct = "6900"
	}
	paymentAcct := strings.TrimSpace(req.PaymentAccountCode)
	if paymentAcct == "" {
		paymentAcct = "1000"
	}
	memo := strings.TrimSpace(req.Memo)
	if memo == "" {
		memo = "Expense"
	}

	entry, err := h.ledger.Post(memo, []ledger.JournalLine{
		{AccountCode: expenseAcct, DebitCents: amount},
		{AccountCode: paymentAcct, CreditCents: amount},
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

type supplierPaymentRequest struct {
	SupplierID  string   `json:"supplier_id"`
	AmountCents looseInt `json:"amount_cents"`
	Memo        string   `json:"memo"`
}

// SupplierPayment books a payment against accounts payable: debit A/P,
// credit cash. purchasing-service mirrors its payments here.
func (h *AccountingHandler) SupplierPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req supplierPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	amount := int64(req.AmountCents)
	if amount <= 0 {
		http.Error(w, "positive amount_cents required", http.StatusBadRequest)
		return
	}
	memo := strings.TrimSpace(req.Memo)
	if memo == "" {
		memo = "Supplier payment"
	}
	if supplier := strings.TrimSpace(req.SupplierID); supplier != "" {
		memo += " (" + supplier + ")"
	}

	entry, err := h.ledger.Post(memo, []ledger.JournalLine{
		{AccountCode: "2000", DebitCents: amount},
		{AccountCode: "1000", CreditCents: amount},
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *AccountingHandler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.ledger.TrialBalanceReport())
}

// looseInt decodes a JSON numeric field leniently: values that do not
// parse as an integer become zero instead of failing the request.
type looseInt int64

func (n *looseInt) UnmarshalJSON(data []byte) error {
	*n = 0
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		num = json.Number(strings.TrimSpace(s))
	}
	if v, err := num.Int64(); err == nil {
		*n = looseInt(v)
	}
	return nil
}

func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrUnknownAccount):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ledger.ErrUnbalanced),
		errors.Is(err, ledger.ErrTooFewLines),
		errors.Is(err, ledger.ErrEmptyLine):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
