package report

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vladislavdragonenkov/ordertrack/internal/domain"
)

// Menu — каталог себестоимости позиций меню: название → закупочная
// цена за единицу. Загружается из конфигурации; позиции вне каталога
// учитываются в отчётах с нулевой себестоимостью.
type Menu map[string]decimal.Decimal

// LoadMenu читает каталог себестоимости из YAML-файла вида
// "Burger: 3.50" (по записи на позицию).
func LoadMenu(path string) (Menu, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu catalog: %w", err)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse menu catalog: %w", err)
	}

	menu := make(Menu, len(raw))
	for name, value := range raw {
		cost, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("menu item %q: bad cost %q", name, value)
		}
		menu[name] = cost
	}
	return menu, nil
}

// SalesReport агрегирует три величины по набору позиций: себестоимость
// для ресторана, цену для клиента и прибыль (разницу между ними).
type SalesReport struct {
	TotalExpense decimal.Decimal
	TotalPrice   decimal.Decimal
	TotalProfit  decimal.Decimal
}

// ItemReport считает отчёт по одной позиции.
func ItemReport(menu Menu, item domain.Item) SalesReport {
	expense := menu[item.Name].Mul(decimal.NewFromInt(int64(item.Quantity)))
	price := item.LineTotal()
	return SalesReport{
		TotalExpense: expense,
		TotalPrice:   price,
		TotalProfit:  price.Sub(expense),
	}
}

// OrderReport складывает отчёты всех позиций заказа.
func OrderReport(menu Menu, order domain.Order) SalesReport {
	report := zeroReport()
	for _, item := range order.Items {
		report = report.add(ItemReport(menu, item))
	}
	return report
}

// ListReport складывает отчёты всех заказов списка.
func ListReport(menu Menu, orders []domain.Order) SalesReport {
	report := zeroReport()
	for _, order := range orders {
		report = report.add(OrderReport(menu, order))
	}
	return report
}

// ProfitByItem строит карту «позиция меню → суммарная прибыль» по
// списку заказов. Позиции вне каталога не учитываются; позиции без
// продаж присутствуют с нулевой прибылью.
func ProfitByItem(menu Menu, orders []domain.Order) map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal, len(menu))
	for name := range menu {
		result[name] = decimal.Zero
	}

	for _, order := range orders {
		for _, item := range order.Items {
			if _, ok := result[item.Name]; !ok {
				continue
			}
			result[item.Name] = result[item.Name].Add(ItemReport(menu, item).TotalProfit)
		}
	}
	return result
}

// QuantityByItem строит карту «позиция меню → заказанное количество».
func QuantityByItem(menu Menu, orders []domain.Order) map[string]int {
	result := make(map[string]int, len(menu))
	for name := range menu {
		result[name] = 0
	}

	for _, order := range orders {
		for _, item := range order.Items {
			if _, ok := result[item.Name]; !ok {
				continue
			}
			result[item.Name] += item.Quantity
		}
	}
	return result
}

func zeroReport() SalesReport {
	return SalesReport{
		TotalExpense: decimal.Zero,
		TotalPrice:   decimal.Zero,
		TotalProfit:  decimal.Zero,
	}
}

func (r SalesReport) add(other SalesReport) SalesReport {
	return SalesReport{
		TotalExpense: r.TotalExpense.Add(other.TotalExpense),
		TotalPrice:   r.TotalPrice.Add(other.TotalPrice),
		TotalProfit:  r.TotalProfit.Add(other.TotalProfit),
	}
}
