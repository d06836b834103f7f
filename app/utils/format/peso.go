package format

import (
	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"
)

var peso = accounting.Accounting{Symbol: "₱", Precision: 2, Thousand: ",", Decimal: "."}

// Peso renders a decimal amount as Philippine pesos, e.g. ₱1,250.00.
func Peso(amount decimal.Decimal) string {
	return peso.FormatMoneyDecimal(amount)
}
