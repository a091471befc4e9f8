package core

// AccountBalance computes the balance of account in its own currency:
// initial balance, transactions converted into the account currency, money
// sent out through transfers and the frozen converted amount received.
func AccountBalance(account Account, transactions []Transaction, transfers []Transfer, table ExchangeRateTable) float64 {
	balance := account.InitialBalance
	for _, tx := range transactions {
		if tx.AccountID != account.ID {
			continue
		}
		amount := ConvertAmount(tx.Amount, tx.Currency, account.Currency, table)
		switch tx.Type {
		case Income:
			balance += amount
		case Expense:
			balance -= amount
		}
	}
	for _, tr := range transfers {
		if tr.FromAccountID == account.ID {
			balance -= tr.Amount
		}
		if tr.ToAccountID == account.ID {
			balance += tr.ConvertedAmount
		}
	}
	return balance
}

// ComputeAccountBalance returns the account balance expressed in display.
func ComputeAccountBalance(account Account, transactions []Transaction, transfers []Transfer, table ExchangeRateTable, display Currency) float64 {
	native := AccountBalance(account, transactions, transfers, table)
	return fromBase(ConvertToBase(native, account.Currency, table), display, table)
}

// ComputeTotalBalance sums every account in base currency and converts the
// total to display once.
func ComputeTotalBalance(accounts []Account, transactions []Transaction, transfers []Transfer, table ExchangeRateTable, display Currency) float64 {
	var total float64
	for _, acc := range accounts {
		native := AccountBalance(acc, transactions, transfers, table)
		total += ConvertToBase(native, acc.Currency, table)
	}
	return fromBase(total, display, table)
}

func fromBase(amount float64, to Currency, table ExchangeRateTable) float64 {
	return ConvertAmount(amount, BaseCurrency, to, table)
}
