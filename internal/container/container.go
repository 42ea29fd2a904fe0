package container

import (
	"fmt"
	"time"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/api"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/auth"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/config"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/database"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/metrics"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/notify"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/repository"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/service"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/storage"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/websocket"
	"gorm.io/gorm"
)

// Container wires the application dependencies: database, repositories,
// services, notifier, websocket hub, controllers.
type Container struct {
	db        *gorm.DB
	validator *auth.TokenValidator
	hub       *websocket.Hub
	notifier  notify.Notifier
	collector *metrics.Collector
	blobStore storage.BlobStore

	mrService       service.MaterialRequestService
	poService       service.PurchaseOrderService
	ccService       service.CostCenterService
	templateService service.ApprovalTemplateService
	exportService   service.ExportService

	controllers api.Controllers
}

// NewContainer initializes every dependency from configuration.
func NewContainer(cfg *config.Config) (*Container, error) {
	logger := api.GetLogger()

	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	mrRepo := repository.NewMaterialRequestRepository(db)
	poRepo := repository.NewPurchaseOrderRepository(db)
	seqRepo := repository.NewSequenceRepository(db)
	historyRepo := repository.NewStateHistoryRepository(db)
	ccRepo := repository.NewCostCenterRepository(db)
	templateRepo := repository.NewApprovalTemplateRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	auditLogSvc := service.NewAuditLogService(auditRepo)
	ccSvc := service.NewCostCenterService(db, ccRepo, auditLogSvc)
	templateSvc := service.NewApprovalTemplateService(templateRepo, auditLogSvc)

	workers := cfg.Notifier.Workers
	if workers <= 0 {
		workers = 3
	}
	notifier := notify.NewNotifier(db, cfg.Notifier.GatewayURL, workers, logger)

	hub := websocket.NewHub()
	go hub.Run()

	mrSvc := service.NewMaterialRequestService(db, mrRepo, poRepo, seqRepo, historyRepo, ccSvc, templateSvc, auditLogSvc, notifier, hub)
	poSvc := service.NewPurchaseOrderService(db, poRepo, mrRepo, seqRepo, historyRepo, templateSvc, auditLogSvc, notifier, hub)
	exportSvc := service.NewExportService(mrSvc)

	var blobStore storage.BlobStore
	if cfg.Storage.Endpoint != "" {
		blobStore, err = storage.NewMinioStore(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize blob store: %w", err)
		}
	}

	validator := auth.NewTokenValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	collector := metrics.NewCollector(db, 30*time.Second)
	collector.Start()

	controllers := api.Controllers{
		MaterialRequest:  api.NewMaterialRequestController(mrSvc, blobStore),
		PurchaseOrder:    api.NewPurchaseOrderController(poSvc, blobStore),
		CostCenter:       api.NewCostCenterController(ccSvc),
		ApprovalTemplate: api.NewApprovalTemplateController(templateSvc),
		Export:           api.NewExportController(exportSvc),
	}

	return &Container{
		db:              db,
		validator:       validator,
		hub:             hub,
		notifier:        notifier,
		collector:       collector,
		blobStore:       blobStore,
		mrService:       mrSvc,
		poService:       poSvc,
		ccService:       ccSvc,
		templateService: templateSvc,
		exportService:   exportSvc,
		controllers:     controllers,
	}, nil
}

// DB returns the database handle.
func (c *Container) DB() *gorm.DB {
	return c.db
}

// TokenValidator returns the JWT validator.
func (c *Container) TokenValidator() *auth.TokenValidator {
	return c.validator
}

// Hub returns the websocket hub.
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// Controllers returns the HTTP controllers for route registration.
func (c *Container) Controllers() api.Controllers {
	return c.controllers
}

// MaterialRequestService returns the MR workflow service.
func (c *Container) MaterialRequestService() service.MaterialRequestService {
	return c.mrService
}

// PurchaseOrderService returns the PO workflow service.
func (c *Container) PurchaseOrderService() service.PurchaseOrderService {
	return c.poService
}

// Close stops background workers and closes the database.
func (c *Container) Close() error {
	if c.collector != nil {
		c.collector.Stop()
	}
	if c.notifier != nil {
		c.notifier.Close()
	}
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	return nil
}
