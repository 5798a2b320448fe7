package ledger

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/northfarm/sales-backend/internal/audit"
	"github.com/northfarm/sales-backend/internal/entries"
	"github.com/northfarm/sales-backend/internal/permissions"
	"github.com/northfarm/sales-backend/pkg/config"
	"github.com/northfarm/sales-backend/pkg/db/models"
	"github.com/northfarm/sales-backend/pkg/enums"
	pkgerrors "github.com/northfarm/sales-backend/pkg/errors"
	"github.com/northfarm/sales-backend/pkg/metrics"
)

var (
	adminActor = permissions.Actor{Username: "admin", Role: enums.ActorRoleAdmin}
	staffActor = permissions.Actor{Username: "staff", Role: enums.ActorRoleStaff}
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type countingPublisher struct {
	calls atomic.Int64
	done  chan struct{}
}

func newCountingPublisher() *countingPublisher {
	return &countingPublisher{done: make(chan struct{}, 16)}
}

func (p *countingPublisher) PublishCurrent(ctx context.Context) error {
	p.calls.Add(1)
	p.done <- struct{}{}
	return nil
}

func (p *countingPublisher) waitForPublish(t *testing.T) {
	t.Helper()
	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a snapshot publish")
	}
}

type fixture struct {
	svc       Service
	sales     entries.SaleRepository
	closures  entries.ClosureRepository
	trail     audit.Service
	publisher *countingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	// A named shared-cache DSN keeps every pooled connection on the same
	// in-memory database.
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if sqlDB, err := conn.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := conn.AutoMigrate(&models.SaleEntry{}, &models.ClosedDate{}, &models.AuditRecord{}); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	sales := entries.NewSaleRepository(conn)
	closures := entries.NewClosureRepository(conn)
	trail, err := audit.NewService(audit.NewRepository(conn), 200)
	if err != nil {
		t.Fatalf("new audit service failed: %v", err)
	}

	publisher := newCountingPublisher()
	cfg := config.LedgerConfig{
		Locations:       []string{"clubhouse", "starthouse"},
		AuditCap:        200,
		SnapshotChannel: "northfarm:snapshots",
	}
	meter := metrics.NewLedgerMetrics(prometheus.NewRegistry())

	svc, err := NewService(gormTxRunner{db: conn}, sales, closures, trail, cfg, meter, publisher, nil)
	if err != nil {
		t.Fatalf("new ledger service failed: %v", err)
	}
	return &fixture{
		svc:       svc,
		sales:     sales,
		closures:  closures,
		trail:     trail,
		publisher: publisher,
	}
}

func (f *fixture) record(t *testing.T, actor permissions.Actor, date, location string, amount int64) *models.SaleEntry {
	t.Helper()
	entry, err := f.svc.RecordSale(context.Background(), actor, RecordSaleInput{
		Date:     date,
		Location: location,
		Amount:   decimal.NewFromInt(amount),
	})
	if err != nil {
		t.Fatalf("record sale failed: %v", err)
	}
	f.publisher.waitForPublish(t)
	return entry
}

func (f *fixture) close(t *testing.T, actor permissions.Actor, date string) {
	t.Helper()
	if _, err := f.svc.CloseDay(context.Background(), actor, date); err != nil {
		t.Fatalf("close day failed: %v", err)
	}
	f.publisher.waitForPublish(t)
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected %s error, got %v", code, err)
	}
	if appErr.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code(), err)
	}
}

func TestRecordSaleStoresEntryAndAudits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entry := f.record(t, staffActor, "2024-03-01", "clubhouse", 10000)
	if entry.ID == uuid.Nil {
		t.Fatal("expected entry to receive an id")
	}

	stored, err := f.sales.GetByID(ctx, entry.ID)
	if err != nil || stored == nil {
		t.Fatalf("expected entry stored, got %v %v", stored, err)
	}

	records, err := f.trail.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(records) != 1 || records[0].Action != enums.AuditActionRecord || records[0].Actor != "staff" {
		t.Fatalf("expected one record audit entry, got %+v", records)
	}
}

func TestRecordSaleValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   RecordSaleInput
		code pkgerrors.Code
	}{
		{
			name: "missing date",
			in:   RecordSaleInput{Location: "clubhouse", Amount: decimal.NewFromInt(100)},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "malformed date",
			in:   RecordSaleInput{Date: "03/01/2024", Location: "clubhouse", Amount: decimal.NewFromInt(100)},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "non-canonical date",
			in:   RecordSaleInput{Date: "2024-3-1", Location: "clubhouse", Amount: decimal.NewFromInt(100)},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "unknown location",
			in:   RecordSaleInput{Date: "2024-03-01", Location: "barn", Amount: decimal.NewFromInt(100)},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "negative amount",
			in:   RecordSaleInput{Date: "2024-03-01", Location: "clubhouse", Amount: decimal.NewFromInt(-5)},
			code: pkgerrors.CodeValidation,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.RecordSale(ctx, staffActor, tc.in)
			expectCode(t, err, tc.code)
		})
	}
}

func TestRecordSaleZeroAmountAllowed(t *testing.T) {
	f := newFixture(t)
	entry := f.record(t, staffActor, "2024-03-01", "clubhouse", 0)
	if !entry.Amount.IsZero() {
		t.Fatalf("expected zero amount entry, got %s", entry.Amount)
	}
}

func TestRecordSaleUnknownActorRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RecordSale(context.Background(), permissions.Actor{}, RecordSaleInput{
		Date:     "2024-03-01",
		Location: "clubhouse",
		Amount:   decimal.NewFromInt(100),
	})
	expectCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRecordSaleOnClosedDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.record(t, staffActor, "2024-03-01", "clubhouse", 10000)
	f.close(t, staffActor, "2024-03-01")

	// Staff cannot write to a closed date.
	_, err := f.svc.RecordSale(ctx, staffActor, RecordSaleInput{
		Date:     "2024-03-01",
		Location: "clubhouse",
		Amount:   decimal.NewFromInt(500),
	})
	expectCode(t, err, pkgerrors.CodeDateClosed)

	// An administrator can.
	if _, err := f.svc.RecordSale(ctx, adminActor, RecordSaleInput{
		Date:     "2024-03-01",
		Location: "clubhouse",
		Amount:   decimal.NewFromInt(500),
	}); err != nil {
		t.Fatalf("expected admin write on closed date to succeed, got %v", err)
	}
}

func TestDeleteSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry := f.record(t, staffActor, "2024-03-01", "clubhouse", 10000)

	if err := f.svc.DeleteSale(ctx, staffActor, entry.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	f.publisher.waitForPublish(t)

	stored, err := f.sales.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored != nil {
		t.Fatal("expected entry removed")
	}

	err = f.svc.DeleteSale(ctx, staffActor, uuid.New())
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestDeleteSaleOnClosedDateStaffRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry := f.record(t, staffActor, "2024-03-01", "clubhouse", 10000)
	f.close(t, staffActor, "2024-03-01")

	err := f.svc.DeleteSale(ctx, staffActor, entry.ID)
	expectCode(t, err, pkgerrors.CodeDateClosed)

	stored, err := f.sales.GetByID(ctx, entry.ID)
	if err != nil || stored == nil {
		t.Fatalf("expected entry retained after rejected delete, got %v %v", stored, err)
	}

	if err := f.svc.DeleteSale(ctx, adminActor, entry.ID); err != nil {
		t.Fatalf("expected admin delete on closed date to succeed, got %v", err)
	}
}

func TestCloseDayRequiresEntries(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CloseDay(context.Background(), staffActor, "2024-03-01")
	expectCode(t, err, pkgerrors.CodeNoEntries)
}

func TestCloseDayLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.record(t, staffActor, "2024-03-01", "clubhouse", 10000)

	mark, err := f.svc.CloseDay(ctx, staffActor, "2024-03-01")
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	f.publisher.waitForPublish(t)
	if mark.ClosedBy != "staff" || mark.ClosedAt.IsZero() {
		t.Fatalf("unexpected closure mark %+v", mark)
	}

	_, err = f.svc.CloseDay(ctx, adminActor, "2024-03-01")
	expectCode(t, err, pkgerrors.CodeAlreadyClosed)
}

func TestReopenDayAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.record(t, staffActor, "2024-03-01", "clubhouse", 10000)
	f.close(t, staffActor, "2024-03-01")

	err := f.svc.ReopenDay(ctx, staffActor, "2024-03-01")
	expectCode(t, err, pkgerrors.CodeForbidden)

	if err := f.svc.ReopenDay(ctx, adminActor, "2024-03-01"); err != nil {
		t.Fatalf("admin reopen failed: %v", err)
	}
	f.publisher.waitForPublish(t)

	// The date is writable by staff again.
	if _, err := f.svc.RecordSale(ctx, staffActor, RecordSaleInput{
		Date:     "2024-03-01",
		Location: "clubhouse",
		Amount:   decimal.NewFromInt(200),
	}); err != nil {
		t.Fatalf("expected reopened date writable, got %v", err)
	}
}

func TestReopenOpenDateRejected(t *testing.T) {
	f := newFixture(t)
	err := f.svc.ReopenDay(context.Background(), adminActor, "2024-03-01")
	expectCode(t, err, pkgerrors.CodeNotClosed)
}

func TestAuditTrailCoversLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry := f.record(t, staffActor, "2024-03-01", "clubhouse", 10000)
	f.record(t, staffActor, "2024-03-01", "starthouse", 2000)
	f.close(t, staffActor, "2024-03-01")
	if err := f.svc.ReopenDay(ctx, adminActor, "2024-03-01"); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	f.publisher.waitForPublish(t)
	if err := f.svc.DeleteSale(ctx, staffActor, entry.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	f.publisher.waitForPublish(t)

	records, err := f.trail.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 audit records, got %d", len(records))
	}

	actions := map[enums.AuditAction]int{}
	for _, record := range records {
		actions[record.Action]++
	}
	if actions[enums.AuditActionRecord] != 2 ||
		actions[enums.AuditActionClose] != 1 ||
		actions[enums.AuditActionReopen] != 1 ||
		actions[enums.AuditActionDelete] != 1 {
		t.Fatalf("unexpected action mix %v", actions)
	}
}

func TestRejectedMutationsDoNotPublish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordSale(ctx, staffActor, RecordSaleInput{
		Date:     "bad",
		Location: "clubhouse",
		Amount:   decimal.NewFromInt(1),
	})
	expectCode(t, err, pkgerrors.CodeValidation)

	if n := f.publisher.calls.Load(); n != 0 {
		t.Fatalf("expected no snapshot publish after a rejected mutation, got %d", n)
	}
}
