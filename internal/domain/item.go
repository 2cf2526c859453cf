package domain

import "github.com/shopspring/decimal"

// Item — позиция заказа. После создания заказа позиции не меняются:
// наружу всегда отдаются копии, изменение видимой позиции не влияет
// на заказ в хранилище.
type Item struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// LineTotal возвращает стоимость позиции: цена, умноженная на количество.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Validate проверяет структурную корректность позиции.
func (i Item) Validate() []error {
	var errs []error

	if i.Name == "" {
		errs = append(errs, ErrItemNameRequired)
	}
	if i.Price.IsNegative() {
		errs = append(errs, ErrItemPriceInvalid)
	}
	if i.Quantity <= 0 {
		errs = append(errs, ErrItemQtyInvalid)
	}

	return errs
}
