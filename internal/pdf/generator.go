package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/hartawan/tambak-contracts/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

// Generate renders the printable contract: header, parties, pricing table
// with effective prices, penalty rules and the delivery schedule.
func (g *Generator) Generate(doc model.ContractDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "SEAFOOD PURCHASE CONTRACT", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Contract No. %s (%s)", doc.Contract.ContractNumber, doc.Contract.ContractType), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Status: %s", doc.Contract.Status), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Supplier", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, supplierLine(doc.Contract), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Pricing", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)

	headers := []string{"Size", "Base price (Rp)", "Effective price (Rp)"}
	colWidths := []float64{40, 70, 70}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)
	for _, row := range doc.Rows {
		drawTableRow(pdf, g.fontName, []string{
			formatAmount(row.Size, 0),
			formatAmount(row.BasePrice, 2),
			formatAmount(row.EffectivePrice, 2),
		}, colWidths, false)
	}
	pdf.Ln(4)

	if len(doc.Contract.SizePenalties) > 0 {
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, "Size penalties", "", 1, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 10)

		penaltyHeaders := []string{"Size range", "Amount", "Unit"}
		penaltyWidths := []float64{60, 60, 60}
		drawTableRow(pdf, g.fontName, penaltyHeaders, penaltyWidths, true)
		for _, rule := range doc.Contract.SizePenalties {
			drawTableRow(pdf, g.fontName, []string{
				rule.Range,
				formatAmount(rule.Amount, 2),
				string(rule.Unit),
			}, penaltyWidths, false)
		}
		pdf.Ln(4)
	}

	if len(doc.Contract.Deliveries) > 0 {
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, "Delivery schedule", "", 1, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 10)

		deliveryHeaders := []string{"Date", "Quantity", "Unit", "Size range"}
		deliveryWidths := []float64{45, 45, 45, 45}
		drawTableRow(pdf, g.fontName, deliveryHeaders, deliveryWidths, true)
		for _, delivery := range doc.Contract.Deliveries {
			drawTableRow(pdf, g.fontName, []string{
				delivery.Date,
				formatAmount(delivery.Quantity, 2),
				string(delivery.Unit),
				delivery.SizeRange,
			}, deliveryWidths, false)
		}
		pdf.Ln(6)
	}

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", doc.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(10)

	pdf.CellFormat(90, 6, "General Manager: ____________________", "", 0, "L", false, 0, "")
	pdf.CellFormat(90, 6, "Supplier: ____________________", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cells []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, cell := range cells {
		pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func formatAmount(value float64, decimals int) string {
	return fmt.Sprintf("%.*f", decimals, value)
}

func supplierLine(contract model.Contract) string {
	if contract.SupplierName != nil && *contract.SupplierName != "" {
		return *contract.SupplierName
	}
	if contract.SupplierID != nil {
		return fmt.Sprintf("Supplier ID %s", contract.SupplierID)
	}
	return "-"
}
