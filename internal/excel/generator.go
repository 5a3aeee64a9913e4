package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hartawan/tambak-contracts/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders a contract price sheet workbook: a summary sheet, the
// penalty-adjusted pricing table, and the delivery schedule.
func (g *Generator) Generate(sheet model.PriceSheet) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, sheet); err != nil {
		return nil, err
	}

	pricingSheet := "Pricing"
	file.NewSheet(pricingSheet)
	if err := g.writePricing(file, pricingSheet, sheet); err != nil {
		return nil, err
	}

	if len(sheet.Contract.Deliveries) > 0 {
		deliverySheet := "Deliveries"
		file.NewSheet(deliverySheet)
		if err := g.writeDeliveries(file, deliverySheet, sheet.Contract.Deliveries); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, data model.PriceSheet) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Contract number")
	set("B1", data.Contract.ContractNumber)
	set("A2", "Contract type")
	set("B2", string(data.Contract.ContractType))
	set("A3", "Supplier")
	set("B3", supplierLabel(data.Contract))
	set("A4", "Status")
	set("B4", string(data.Contract.Status))
	set("A5", "Price points")
	set("B5", len(data.Rows))
	set("A6", "Penalty rules")
	set("B6", len(data.Contract.SizePenalties))
	set("A7", "Generated at")
	set("B7", data.GeneratedAt.Format(time.RFC3339))

	return nil
}

func (g *Generator) writePricing(file *excelize.File, sheet string, data model.PriceSheet) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Size")
	set("B1", "Base price (Rp)")
	set("C1", "Effective price (Rp)")
	for i, row := range data.Rows {
		rowNum := i + 2
		set(fmt.Sprintf("A%d", rowNum), row.Size)
		set(fmt.Sprintf("B%d", rowNum), row.BasePrice)
		set(fmt.Sprintf("C%d", rowNum), row.EffectivePrice)
	}

	penaltyRow := len(data.Rows) + 4
	set(fmt.Sprintf("A%d", penaltyRow), "Size range")
	set(fmt.Sprintf("B%d", penaltyRow), "Amount")
	set(fmt.Sprintf("C%d", penaltyRow), "Unit")
	for i, rule := range data.Contract.SizePenalties {
		rowNum := penaltyRow + 1 + i
		set(fmt.Sprintf("A%d", rowNum), rule.Range)
		set(fmt.Sprintf("B%d", rowNum), rule.Amount)
		set(fmt.Sprintf("C%d", rowNum), string(rule.Unit))
	}

	return nil
}

func (g *Generator) writeDeliveries(file *excelize.File, sheet string, deliveries []model.Delivery) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Date")
	set("B1", "Quantity")
	set("C1", "Unit")
	set("D1", "Size range")
	for i, delivery := range deliveries {
		rowNum := i + 2
		set(fmt.Sprintf("A%d", rowNum), delivery.Date)
		set(fmt.Sprintf("B%d", rowNum), delivery.Quantity)
		set(fmt.Sprintf("C%d", rowNum), string(delivery.Unit))
		set(fmt.Sprintf("D%d", rowNum), delivery.SizeRange)
	}

	return nil
}

func supplierLabel(contract model.Contract) string {
	if contract.SupplierName != nil && *contract.SupplierName != "" {
		return *contract.SupplierName
	}
	if contract.SupplierID != nil {
		return contract.SupplierID.String()
	}
	return ""
}
