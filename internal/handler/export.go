package handler

import (
	"fmt"
	"strings"

	"greencart/internal/model"

	"github.com/tealeg/xlsx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeaders = []string{
	"Order ID", "Placed At", "Customer", "City", "Items",
	"Amount", "Payment Type", "Paid", "Status", "Promo Code",
}

// buildOrdersWorkbook renders one row per order.
func buildOrdersWorkbook(orders []model.OrderView) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetValue(h)
	}

	for _, o := range orders {
		row := sheet.AddRow()
		row.AddCell().SetValue(o.ID.String())
		row.AddCell().SetValue(o.CreatedAt.UTC().Format("2006-01-02 15:04:05"))

		customer, city := "", ""
		if o.Address != nil {
			customer = strings.TrimSpace(o.Address.FirstName + " " + o.Address.LastName)
			city = o.Address.City
		}
		row.AddCell().SetValue(customer)
		row.AddCell().SetValue(city)
		row.AddCell().SetValue(describeItems(o.Items))

		amount, _ := o.Amount.Round(2).Float64()
		row.AddCell().SetFloat(amount)
		row.AddCell().SetValue(string(o.PaymentType))
		row.AddCell().SetBool(o.IsPaid)
		row.AddCell().SetValue(string(o.Status))

		promo := ""
		if o.PromoCode != nil {
			promo = *o.PromoCode
		}
		row.AddCell().SetValue(promo)
	}

	return file, nil
}

func describeItems(items []model.OrderItemView) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		name := "(removed product)"
		if item.Product != nil {
			name = item.Product.Name
		}
		parts = append(parts, fmt.Sprintf("%s x%d", name, item.Quantity))
	}
	return strings.Join(parts, "; ")
}
