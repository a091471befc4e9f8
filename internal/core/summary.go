package core

import (
	"sort"
	"time"
)

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	CategoryID int64           `json:"categoryId"`
	Name       string          `json:"name"`
	Type       TransactionType `json:"type"`
	Amount     float64         `json:"amount"`
}

// PeriodSummary aggregates the transactions of one time window, expressed in
// Currency.
type PeriodSummary struct {
	Window     TimeWindow       `json:"window"`
	Offset     int              `json:"offset"`
	Start      Date             `json:"start"`
	End        Date             `json:"end"`
	Currency   Currency         `json:"currency"`
	Income     float64          `json:"income"`
	Expense    float64          `json:"expense"`
	Net        float64          `json:"net"`
	Count      int              `json:"count"`
	ByCategory []CategoryAmount `json:"byCategory"`
}

// SummarizePeriod aggregates transactions dated within [start, end). Transfers
// move money between accounts and are not part of income or expense.
func SummarizePeriod(transactions []Transaction, categories []Category, start, end time.Time, table ExchangeRateTable, display Currency) PeriodSummary {
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	s := PeriodSummary{
		Start:    DateOf(start),
		End:      DateOf(end),
		Currency: display,
	}
	byCategory := make(map[int64]*CategoryAmount)
	for _, tx := range transactions {
		if !tx.Date.Within(start, end) {
			continue
		}
		amount := ConvertAmount(tx.Amount, tx.Currency, display, table)
		switch tx.Type {
		case Income:
			s.Income += amount
		case Expense:
			s.Expense += amount
		default:
			continue
		}
		s.Count++
		ca, ok := byCategory[tx.CategoryID]
		if !ok {
			ca = &CategoryAmount{CategoryID: tx.CategoryID, Name: names[tx.CategoryID], Type: tx.Type}
			byCategory[tx.CategoryID] = ca
		}
		ca.Amount += amount
	}
	s.Net = s.Income - s.Expense

	s.ByCategory = make([]CategoryAmount, 0, len(byCategory))
	for _, ca := range byCategory {
		s.ByCategory = append(s.ByCategory, *ca)
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		if s.ByCategory[i].Amount != s.ByCategory[j].Amount {
			return s.ByCategory[i].Amount > s.ByCategory[j].Amount
		}
		return s.ByCategory[i].CategoryID < s.ByCategory[j].CategoryID
	})
	return s
}
