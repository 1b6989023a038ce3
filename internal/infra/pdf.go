package infra

// pdf.go: invoice PDF for a completed Venta, rendered with go-pdf/fpdf as a
// receipt-width page with header, lines, totals, payments and remaining
// balance. The file is written to storagePath/factura_{numero}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonyGudino21/pharma-back/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateFacturaPDF renders the invoice and returns the written path.
// The venta must carry Items (with Producto) and Pagos.
func GenerateFacturaPDF(venta *model.Venta, negocio, storagePath string) (string, error) {
	if venta.NumeroFactura == nil {
		return "", fmt.Errorf("pdf: venta %s has no invoice number", venta.ID)
	}
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("factura_%s.pdf", *venta.NumeroFactura))

	// 80mm thermal roll, height grows with the number of lines
	alto := 110 + float64(len(venta.Items)+len(venta.Pagos))*5
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: alto},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, tr(negocio), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Factura "+*venta.NumeroFactura, "", 1, "C", false, 0, "")
	fecha := venta.CreatedAt
	if venta.CompletadaAt != nil {
		fecha = *venta.CompletadaAt
	}
	pdf.CellFormat(contentW, 4, fecha.Format("02/01/2006  15:04"), "", 1, "C", false, 0, "")
	if venta.Cliente != nil {
		pdf.CellFormat(contentW, 4, tr("Cliente: "+venta.Cliente.Nombre), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Lines ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.46
	col2 := contentW * 0.14
	col3 := contentW * 0.18
	col4 := contentW * 0.22

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "P.Unit", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 5, "Importe", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range venta.Items {
		nombre := item.ProductoID.String()[:8]
		if item.Producto != nil {
			nombre = item.Producto.Nombre
		}
		if r := []rune(nombre); len(r) > 24 {
			nombre = string(r[:23]) + "."
		}
		pdf.CellFormat(col1, 5, tr(nombre), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("%d", item.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, item.PrecioUnitario.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 5, "$"+item.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ───────────────────────────────────────────────────────────────
	labelW := col1 + col2 + col3
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(labelW, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 6, "$"+venta.Total.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, pago := range venta.Pagos {
		pdf.CellFormat(labelW, 4, tr("Pago ("+pago.Metodo+"):"), "", 0, "L", false, 0, "")
		pdf.CellFormat(col4, 4, "$"+pago.Monto.StringFixed(2), "", 1, "R", false, 0, "")
	}
	if venta.Saldo.IsPositive() {
		pdf.SetFont("Helvetica", "B", 7)
		pdf.CellFormat(labelW, 5, tr("Saldo a crédito:"), "", 0, "L", false, 0, "")
		pdf.CellFormat(col4, 5, "$"+venta.Saldo.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("¡Gracias por su compra!"), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
