package infra

import (
	"bytes"
	"fmt"

	"github.com/JonyGudino21/pharma-back/internal/model"

	"github.com/xuri/excelize/v2"
)

const kardexSheet = "Kardex"

var kardexHeaders = []string{
	"Fecha", "Tipo", "Cantidad", "Stock anterior", "Stock nuevo",
	"Costo unitario", "Costo total", "Motivo", "Referencia",
}

// KardexXLSX renders a product's movements as a spreadsheet.
func KardexXLSX(p *model.Producto, movs []model.MovimientoStock) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", kardexSheet); err != nil {
		return nil, err
	}

	f.SetCellValue(kardexSheet, "A1", p.Nombre)
	f.SetCellValue(kardexSheet, "A2", "Código: "+p.CodigoBarras)
	f.SetCellValue(kardexSheet, "D2", "Stock actual")
	f.SetCellValue(kardexSheet, "E2", p.StockActual)
	f.SetCellValue(kardexSheet, "F2", "Costo promedio")
	f.SetCellValue(kardexSheet, "G2", p.PrecioCosto.InexactFloat64())

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	for i, h := range kardexHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		f.SetCellValue(kardexSheet, cell, h)
	}
	if err := f.SetCellStyle(kardexSheet, "A4", "I4", bold); err != nil {
		return nil, err
	}

	for i, m := range movs {
		row := i + 5
		ref := ""
		if m.ReferenciaID != nil {
			ref = m.ReferenciaID.String()
		}
		values := []any{
			m.CreatedAt.Format("2006-01-02 15:04"),
			string(m.Tipo),
			m.Cantidad,
			m.StockAnterior,
			m.StockNuevo,
			m.CostoUnitario.InexactFloat64(),
			m.CostoTotal.InexactFloat64(),
			m.Motivo,
			ref,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(kardexSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("excel: row %d: %w", row, err)
		}
	}
	f.SetColWidth(kardexSheet, "A", "A", 18)
	f.SetColWidth(kardexSheet, "H", "H", 40)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("excel: write: %w", err)
	}
	return buf.Bytes(), nil
}
