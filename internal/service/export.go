package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/mmeshcher/installment-system/internal/model"
)

type paymentColumn struct {
	Header string
	Value  func(p model.Payment) any
}

var paymentColumns = []paymentColumn{
	{Header: "ID", Value: func(p model.Payment) any { return p.ID }},
	{Header: "Order", Value: func(p model.Payment) any { return p.OrderID }},
	{Header: "Installment", Value: func(p model.Payment) any {
		if p.InstallmentID == nil {
			return ""
		}
		return *p.InstallmentID
	}},
	{Header: "Amount", Value: func(p model.Payment) any { return p.Amount.StringFixed(2) }},
	{Header: "Method", Value: func(p model.Payment) any { return p.Method }},
	{Header: "Payment Date", Value: func(p model.Payment) any { return p.PaymentDate.Format("2006-01-02 15:04:05") }},
	{Header: "Reference", Value: func(p model.Payment) any { return p.ReferenceNumber }},
	{Header: "Notes", Value: func(p model.Payment) any { return p.Notes }},
}

// ExportPayments формирует XLSX-отчёт по платежам продавца, опционально по
// одному заказу. Книга отдаётся вызывающему для записи в ответ.
func (s *Service) ExportPayments(ctx context.Context, sellerID int64, orderID *int64) (*excelize.File, error) {
	payments, err := s.repo.ListPayments(ctx, sellerID, orderID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Payments"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for i, col := range paymentColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, col.Header); err != nil {
			return nil, fmt.Errorf("set header: %w", err)
		}
	}

	for rowIdx, p := range payments {
		for colIdx, col := range paymentColumns {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, col.Value(p)); err != nil {
				return nil, fmt.Errorf("set cell: %w", err)
			}
		}
	}

	return f, nil
}
