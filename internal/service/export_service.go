package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/repository"
	"github.com/xuri/excelize/v2"
)

// ExportService exposes read-only flattened projections of the document
// store: one row per MR and one row per order item, plus an xlsx writer.
// Pure data shaping, no workflow logic.
type ExportService interface {
	MRRows(filter *repository.MaterialRequestFilter) ([]MRRow, error)
	ItemRows(filter *repository.MaterialRequestFilter) ([]ItemRow, error)
	WriteXLSX(w io.Writer, filter *repository.MaterialRequestFilter) error
}

// MRRow is one MR flattened for spreadsheet export.
type MRRow struct {
	KodeMR         string `json:"kode_mr"`
	Status         string `json:"status"`
	Prioritas      string `json:"prioritas"`
	Department     string `json:"department"`
	TujuanSite     string `json:"tujuan_site"`
	CostCenterID   string `json:"cost_center_id"`
	CostEstimation int64  `json:"cost_estimation"`
	ItemCount      int    `json:"item_count"`
	DueDate        string `json:"due_date"`
	CreatedBy      string `json:"created_by"`
	CreatedAt      string `json:"created_at"`
}

// ItemRow is one order item flattened for spreadsheet export.
type ItemRow struct {
	KodeMR         string `json:"kode_mr"`
	MRStatus       string `json:"mr_status"`
	ItemName       string `json:"item_name"`
	PartNumber     string `json:"part_number"`
	Qty            int64  `json:"qty"`
	UOM            string `json:"uom"`
	EstimasiHarga  int64  `json:"estimasi_harga"`
	EstimatedTotal int64  `json:"estimated_total"`
	ItemStatus     string `json:"item_status"`
	PORefs         string `json:"po_refs"`
}

type exportService struct {
	mrSvc MaterialRequestService
}

// NewExportService creates an export service.
func NewExportService(mrSvc MaterialRequestService) ExportService {
	return &exportService{mrSvc: mrSvc}
}

const exportDateLayout = "2006-01-02"

func (s *exportService) MRRows(filter *repository.MaterialRequestFilter) ([]MRRow, error) {
	views, err := s.mrSvc.List(filter)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rows := make([]MRRow, 0, len(views))
	for _, v := range views {
		rows = append(rows, MRRow{
			KodeMR:         v.KodeMR,
			Status:         string(v.Status),
			Prioritas:      string(v.MaterialRequest.Prioritas(now)),
			Department:     v.Department,
			TujuanSite:     v.TujuanSite,
			CostCenterID:   v.CostCenterID,
			CostEstimation: v.CostEstimation,
			ItemCount:      len(v.Orders),
			DueDate:        v.DueDate.Format(exportDateLayout),
			CreatedBy:      v.CreatedByName,
			CreatedAt:      v.CreatedAt.Format(exportDateLayout),
		})
	}
	return rows, nil
}

func (s *exportService) ItemRows(filter *repository.MaterialRequestFilter) ([]ItemRow, error) {
	views, err := s.mrSvc.List(filter)
	if err != nil {
		return nil, err
	}

	var rows []ItemRow
	for _, v := range views {
		for _, it := range v.Orders {
			rows = append(rows, ItemRow{
				KodeMR:         v.KodeMR,
				MRStatus:       string(v.Status),
				ItemName:       it.Name,
				PartNumber:     it.PartNumber,
				Qty:            it.Qty,
				UOM:            it.UOM,
				EstimasiHarga:  it.EstimasiHarga,
				EstimatedTotal: it.EstimatedTotal(),
				ItemStatus:     string(it.Status),
				PORefs:         strings.Join(it.PORefs, ", "),
			})
		}
	}
	return rows, nil
}

func (s *exportService) WriteXLSX(w io.Writer, filter *repository.MaterialRequestFilter) error {
	mrRows, err := s.MRRows(filter)
	if err != nil {
		return err
	}
	itemRows, err := s.ItemRows(filter)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const mrSheet = "Material Requests"
	const itemSheet = "Items"
	f.SetSheetName("Sheet1", mrSheet)
	if _, err := f.NewSheet(itemSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	mrHeader := []interface{}{"Kode MR", "Status", "Prioritas", "Department", "Tujuan Site", "Cost Center", "Cost Estimation", "Items", "Due Date", "Created By", "Created At"}
	if err := f.SetSheetRow(mrSheet, "A1", &mrHeader); err != nil {
		return err
	}
	for i, r := range mrRows {
		row := []interface{}{r.KodeMR, r.Status, r.Prioritas, r.Department, r.TujuanSite, r.CostCenterID, r.CostEstimation, r.ItemCount, r.DueDate, r.CreatedBy, r.CreatedAt}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(mrSheet, cell, &row); err != nil {
			return err
		}
	}

	itemHeader := []interface{}{"Kode MR", "MR Status", "Item", "Part Number", "Qty", "UOM", "Estimasi Harga", "Estimated Total", "Item Status", "PO Refs"}
	if err := f.SetSheetRow(itemSheet, "A1", &itemHeader); err != nil {
		return err
	}
	for i, r := range itemRows {
		row := []interface{}{r.KodeMR, r.MRStatus, r.ItemName, r.PartNumber, r.Qty, r.UOM, r.EstimasiHarga, r.EstimatedTotal, r.ItemStatus, r.PORefs}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(itemSheet, cell, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}
