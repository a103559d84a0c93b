// README: Money value object; amounts are whole currency units.
package types

const DefaultCurrency = "NGN"

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func NGN(amount int64) Money {
	return Money{Amount: amount, Currency: DefaultCurrency}
}
