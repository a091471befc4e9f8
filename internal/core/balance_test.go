package core

import (
	"testing"
)

func ledgerFixture() (Account, Account, ExchangeRateTable) {
	a := Account{ID: 1, Name: "Pesos", Currency: ARS, InitialBalance: 1000}
	b := Account{ID: 2, Name: "Dolares", Currency: USDMep, InitialBalance: 0}
	table := NormalizeRates(ExchangeRateTable{USDMep: {1000}}, LiveDefaultRates())
	return a, b, table
}

func TestAccountBalanceWithoutActivity(t *testing.T) {
	a, b, table := ledgerFixture()
	b.InitialBalance = 12.5
	for _, acc := range []Account{a, b} {
		got := ComputeAccountBalance(acc, nil, nil, table, acc.Currency)
		if !almostEqual(got, acc.InitialBalance) {
			t.Fatalf("%s: got %v, want %v", acc.Name, got, acc.InitialBalance)
		}
	}
}

func TestAccountBalanceTransactions(t *testing.T) {
	a, _, table := ledgerFixture()
	txs := []Transaction{
		{ID: 1, AccountID: a.ID, Type: Expense, Amount: 200, Currency: ARS},
		{ID: 2, AccountID: a.ID, Type: Income, Amount: 50, Currency: ARS},
		{ID: 3, AccountID: 99, Type: Income, Amount: 1e6, Currency: ARS},
		{ID: 4, AccountID: a.ID, Type: Income, Amount: 1, Currency: USDMep},
	}
	got := ComputeAccountBalance(a, txs, nil, table, ARS)
	want := 1000.0 - 200 + 50 + 1000
	if !almostEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCrossCurrencyTransferConservesValue(t *testing.T) {
	a, b, table := ledgerFixture()
	converted := ConvertAmount(500, a.Currency, b.Currency, table)
	if !almostEqual(converted, 0.5) {
		t.Fatalf("converted = %v, want 0.5", converted)
	}
	transfers := []Transfer{{ID: 1, FromAccountID: a.ID, ToAccountID: b.ID, Amount: 500, ConvertedAmount: converted, ExchangeRate: converted / 500}}

	if got := ComputeAccountBalance(a, nil, transfers, table, a.Currency); !almostEqual(got, 500) {
		t.Errorf("balance(A) = %v, want 500", got)
	}
	if got := ComputeAccountBalance(b, nil, transfers, table, b.Currency); !almostEqual(got, 0.5) {
		t.Errorf("balance(B) = %v, want 0.5", got)
	}

	before := ComputeTotalBalance([]Account{a, b}, nil, nil, table, ARS)
	after := ComputeTotalBalance([]Account{a, b}, nil, transfers, table, ARS)
	if !almostEqual(before, after) {
		t.Errorf("total changed across transfer: %v -> %v", before, after)
	}
}

func TestTransferUsesFrozenConvertedAmount(t *testing.T) {
	a, b, table := ledgerFixture()
	transfers := []Transfer{{ID: 1, FromAccountID: a.ID, ToAccountID: b.ID, Amount: 500, ConvertedAmount: 0.5, ExchangeRate: 0.001}}

	moved := MergeRates(table, ExchangeRateTable{USDMep: {2000}})
	if got := ComputeAccountBalance(b, nil, transfers, moved, b.Currency); !almostEqual(got, 0.5) {
		t.Fatalf("balance(B) = %v, want snapshot 0.5", got)
	}
}

func TestTransferToDeletedAccountStillCounts(t *testing.T) {
	a, _, table := ledgerFixture()
	transfers := []Transfer{{ID: 1, FromAccountID: a.ID, ToAccountID: 404, Amount: 100, ConvertedAmount: 100}}
	if got := AccountBalance(a, nil, transfers, table); !almostEqual(got, 900) {
		t.Fatalf("got %v, want 900", got)
	}
}

func TestEndToEndLedgerScenario(t *testing.T) {
	a, b, table := ledgerFixture()
	txs := []Transaction{{ID: 1, AccountID: a.ID, Type: Expense, Amount: 200, Currency: ARS}}
	if got := ComputeAccountBalance(a, txs, nil, table, ARS); !almostEqual(got, 800) {
		t.Fatalf("balance(A) after expense = %v, want 800", got)
	}

	transfers := []Transfer{{FromAccountID: a.ID, ToAccountID: b.ID, Amount: 500, ConvertedAmount: ConvertAmount(500, ARS, USDMep, table)}}
	if got := ComputeAccountBalance(a, txs, transfers, table, ARS); !almostEqual(got, 300) {
		t.Errorf("balance(A) = %v, want 300", got)
	}
	if got := ComputeAccountBalance(b, txs, transfers, table, ARS); !almostEqual(got, 500) {
		t.Errorf("balance(B) in ARS = %v, want 500", got)
	}
}

func TestTotalBalanceSumsInBase(t *testing.T) {
	table := SampleDefaultRates()
	accounts := []Account{
		{ID: 1, Currency: ARS, InitialBalance: 2400},
		{ID: 2, Currency: USDBlue, InitialBalance: 1},
		{ID: 3, Currency: USDT, InitialBalance: 2},
	}
	wantBase := 2400 + 1200 + 2*1180.0
	if got := ComputeTotalBalance(accounts, nil, nil, table, ARS); !almostEqual(got, wantBase) {
		t.Fatalf("total ARS = %v, want %v", got, wantBase)
	}
	if got := ComputeTotalBalance(accounts, nil, nil, table, USDBlue); !almostEqual(got, wantBase/1200) {
		t.Fatalf("total USD_BLUE = %v, want %v", got, wantBase/1200)
	}
	if got := ComputeTotalBalance(nil, nil, nil, table, USDT); got != 0 {
		t.Fatalf("empty total = %v", got)
	}
}
