package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/database"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/model"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/notify"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/repository"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/workflow"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	requester = workflow.Actor{ID: "user-req", Name: "Rina", Role: workflow.RoleRequester, Department: "IT", Company: "SUB000"}
	purchaser = workflow.Actor{ID: "user-ga", Name: "Gita", Role: workflow.RolePurchasing, Department: "GA", Company: "SUB000"}
	admin     = workflow.Actor{ID: "user-adm", Name: "Agung", Role: workflow.RoleAdmin, Department: "GA", Company: "SUB000"}
	approverA = workflow.Actor{ID: "user-a", Name: "Andi", Role: workflow.RoleApprover, Department: "IT", Company: "SUB000"}
	approverB = workflow.Actor{ID: "user-b", Name: "Budi", Role: workflow.RoleApprover, Department: "FIN", Company: "SUB000"}
)

type testEnv struct {
	db          *gorm.DB
	mrRepo      repository.MaterialRequestRepository
	poRepo      repository.PurchaseOrderRepository
	ccRepo      repository.CostCenterRepository
	mrSvc       MaterialRequestService
	poSvc       PurchaseOrderService
	ccSvc       CostCenterService
	templateSvc ApprovalTemplateService
	exportSvc   ExportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mrRepo := repository.NewMaterialRequestRepository(db)
	poRepo := repository.NewPurchaseOrderRepository(db)
	seqRepo := repository.NewSequenceRepository(db)
	historyRepo := repository.NewStateHistoryRepository(db)
	ccRepo := repository.NewCostCenterRepository(db)
	templateRepo := repository.NewApprovalTemplateRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	auditLogSvc := NewAuditLogService(auditRepo)
	ccSvc := NewCostCenterService(db, ccRepo, auditLogSvc)
	templateSvc := NewApprovalTemplateService(templateRepo, auditLogSvc)
	notifier := notify.NopNotifier{}

	mrSvc := NewMaterialRequestService(db, mrRepo, poRepo, seqRepo, historyRepo, ccSvc, templateSvc, auditLogSvc, notifier, nil)
	poSvc := NewPurchaseOrderService(db, poRepo, mrRepo, seqRepo, historyRepo, templateSvc, auditLogSvc, notifier, nil)

	return &testEnv{
		db:          db,
		mrRepo:      mrRepo,
		poRepo:      poRepo,
		ccRepo:      ccRepo,
		mrSvc:       mrSvc,
		poSvc:       poSvc,
		ccSvc:       ccSvc,
		templateSvc: templateSvc,
		exportSvc:   NewExportService(mrSvc),
	}
}

func (env *testEnv) seedCostCenter(t *testing.T, budget int64) *model.CostCenterModel {
	t.Helper()
	cc, err := env.ccSvc.Create(context.Background(), admin, &CreateCostCenterRequest{
		Code:          fmt.Sprintf("CC-%s", t.Name()),
		Name:          "Operasional IT",
		CompanyCode:   "SUB000",
		InitialBudget: budget,
	})
	require.NoError(t, err)
	return cc
}

func (env *testEnv) createMR(t *testing.T) *MaterialRequestView {
	t.Helper()
	view, err := env.mrSvc.Create(context.Background(), requester, &CreateMRRequest{
		Orders: []workflow.OrderItem{
			{Name: "Laptop", PartNumber: "LPT-14", Qty: 2, UOM: "unit", EstimasiHarga: 15000000},
			{Name: "Mouse", Qty: 5, UOM: "pcs", EstimasiHarga: 150000},
		},
		DueDate:    time.Now().AddDate(0, 1, 0),
		Remarks:    "replacement hardware",
		TujuanSite: "HO",
	})
	require.NoError(t, err)
	return view
}

func twoStepEntries() []workflow.TemplateEntry {
	return []workflow.TemplateEntry{
		{UserID: approverA.ID, Name: approverA.Name, Department: "IT", Type: workflow.ApprovalTypeMengetahui},
		{UserID: approverB.ID, Name: approverB.Name, Department: "FIN", Type: workflow.ApprovalTypeMenyetujui},
	}
}

// validateMR commits the chain and moves the MR to Pending Approval.
func (env *testEnv) validateMR(t *testing.T, id, costCenterID string) *MaterialRequestView {
	t.Helper()
	view, err := env.mrSvc.Validate(context.Background(), purchaser, id, &ValidateMRRequest{
		CostCenterID: costCenterID,
		Entries:      twoStepEntries(),
	})
	require.NoError(t, err)
	return view
}

// approveMRFully walks the MR through both chain slots into Waiting PO.
func (env *testEnv) approveMRFully(t *testing.T, id string) *MaterialRequestView {
	t.Helper()
	_, err := env.mrSvc.Approve(context.Background(), approverA, id, &ApproveMRRequest{Note: "ok"})
	require.NoError(t, err)
	view, err := env.mrSvc.Approve(context.Background(), approverB, id, &ApproveMRRequest{})
	require.NoError(t, err)
	return view
}
