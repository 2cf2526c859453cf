package ingest

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/ordertrack/internal/domain"
)

var (
	// ErrUnsupportedFile — файл с расширением, которое импорт не понимает.
	ErrUnsupportedFile = errors.New("unsupported order file format")
	// ErrEmptyOrder — файл без единой позиции заказа.
	ErrEmptyOrder = errors.New("order file contains no items")
	// ErrMissingOrderType — файл без тега типа заказа.
	ErrMissingOrderType = errors.New("order file contains no order type")
)

// ParsedOrder — результат разбора файла внешнего заказа: тег типа и
// валидированные позиции. Сопоставление тега конкретному типу —
// забота фабрики.
type ParsedOrder struct {
	Kind  string
	Items []domain.Item
}

// jsonOrderFile описывает внешний JSON-формат:
// {"order": {"type": "...", "items": [{"name", "price", "quantity"}]}}.
type jsonOrderFile struct {
	Order struct {
		Type  string           `json:"type"`
		Items []jsonItemRecord `json:"items"`
	} `json:"order"`
}

type jsonItemRecord struct {
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

// xmlOrderFile описывает внешний XML-формат:
// <Order><OrderType>...</OrderType>
//   <Item type="..."><Price>...</Price><Quantity>...</Quantity></Item>
// </Order>.
type xmlOrderFile struct {
	XMLName   xml.Name        `xml:"Order"`
	OrderType string          `xml:"OrderType"`
	Items     []xmlItemRecord `xml:"Item"`
}

type xmlItemRecord struct {
	Name     string `xml:"type,attr"`
	Price    string `xml:"Price"`
	Quantity int    `xml:"Quantity"`
}

// ParseFile разбирает один файл внешнего заказа. Ошибка относится
// только к этому файлу и не прерывает пакет.
func ParseFile(path string) (ParsedOrder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ParsedOrder{}, fmt.Errorf("read order file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSON(data)
	case ".xml":
		return parseXML(data)
	default:
		return ParsedOrder{}, ErrUnsupportedFile
	}
}

func parseJSON(data []byte) (ParsedOrder, error) {
	var file jsonOrderFile
	if err := json.Unmarshal(data, &file); err != nil {
		return ParsedOrder{}, fmt.Errorf("decode json order: %w", err)
	}

	items := make([]domain.Item, 0, len(file.Order.Items))
	for _, rec := range file.Order.Items {
		price, err := decimal.NewFromString(rec.Price.String())
		if err != nil {
			return ParsedOrder{}, fmt.Errorf("item %q: bad price %q", rec.Name, rec.Price)
		}
		items = append(items, domain.Item{Name: rec.Name, Price: price, Quantity: rec.Quantity})
	}

	return validated(ParsedOrder{Kind: file.Order.Type, Items: items})
}

func parseXML(data []byte) (ParsedOrder, error) {
	var file xmlOrderFile
	if err := xml.Unmarshal(data, &file); err != nil {
		return ParsedOrder{}, fmt.Errorf("decode xml order: %w", err)
	}

	items := make([]domain.Item, 0, len(file.Items))
	for _, rec := range file.Items {
		price, err := decimal.NewFromString(strings.TrimSpace(rec.Price))
		if err != nil {
			return ParsedOrder{}, fmt.Errorf("item %q: bad price %q", rec.Name, rec.Price)
		}
		items = append(items, domain.Item{Name: rec.Name, Price: price, Quantity: rec.Quantity})
	}

	return validated(ParsedOrder{Kind: file.OrderType, Items: items})
}

// validated применяет к разобранному заказу те же структурные проверки,
// что и к доменным позициям: импорт отдаёт только валидные заказы.
func validated(parsed ParsedOrder) (ParsedOrder, error) {
	if strings.TrimSpace(parsed.Kind) == "" {
		return ParsedOrder{}, ErrMissingOrderType
	}
	if len(parsed.Items) == 0 {
		return ParsedOrder{}, ErrEmptyOrder
	}
	for _, item := range parsed.Items {
		if errs := item.Validate(); len(errs) != 0 {
			return ParsedOrder{}, fmt.Errorf("item %q: %w", item.Name, errs[0])
		}
	}
	return parsed, nil
}
