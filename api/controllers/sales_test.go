package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northfarm/sales-backend/api/middleware"
	"github.com/northfarm/sales-backend/internal/ledger"
	"github.com/northfarm/sales-backend/internal/permissions"
	"github.com/northfarm/sales-backend/pkg/db/models"
	"github.com/northfarm/sales-backend/pkg/enums"
	pkgerrors "github.com/northfarm/sales-backend/pkg/errors"
)

type fakeLedger struct {
	recorded  []ledger.RecordSaleInput
	recordErr error
	deleted   []uuid.UUID
	deleteErr error
	lastActor permissions.Actor
}

func (f *fakeLedger) RecordSale(ctx context.Context, actor permissions.Actor, in ledger.RecordSaleInput) (*models.SaleEntry, error) {
	f.lastActor = actor
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	f.recorded = append(f.recorded, in)
	return &models.SaleEntry{
		ID:       uuid.New(),
		Date:     in.Date,
		Location: in.Location,
		Amount:   in.Amount,
	}, nil
}

func (f *fakeLedger) DeleteSale(ctx context.Context, actor permissions.Actor, id uuid.UUID) error {
	f.lastActor = actor
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeLedger) CloseDay(ctx context.Context, actor permissions.Actor, date string) (*models.ClosedDate, error) {
	return &models.ClosedDate{Date: date, ClosedBy: actor.Username}, nil
}

func (f *fakeLedger) ReopenDay(ctx context.Context, actor permissions.Actor, date string) error {
	return nil
}

func (f *fakeLedger) ListSales(ctx context.Context) ([]models.SaleEntry, error) {
	return nil, nil
}

func (f *fakeLedger) ListClosedDates(ctx context.Context) ([]models.ClosedDate, error) {
	return nil, nil
}

func staffContext(r *http.Request) *http.Request {
	ctx := middleware.WithActor(r.Context(), permissions.Actor{
		Username: "staff",
		Role:     enums.ActorRoleStaff,
	})
	return r.WithContext(ctx)
}

func TestSalesRecord(t *testing.T) {
	svc := &fakeLedger{}
	handler := SalesRecord(svc, nil)

	body := `{"date":"2024-03-01","location":"clubhouse","amount":"10000"}`
	req := staffContext(httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(svc.recorded) != 1 || svc.recorded[0].Location != "clubhouse" {
		t.Fatalf("unexpected recorded input %+v", svc.recorded)
	}
	if svc.lastActor.Username != "staff" {
		t.Fatalf("expected actor from context, got %+v", svc.lastActor)
	}
	if !svc.recorded[0].Amount.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("unexpected amount %s", svc.recorded[0].Amount)
	}

	var envelope struct {
		Data models.SaleEntry `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response did not decode: %v", err)
	}
	if envelope.Data.Date != "2024-03-01" {
		t.Fatalf("unexpected entry %+v", envelope.Data)
	}
}

func TestSalesRecordRejectsUnknownFields(t *testing.T) {
	svc := &fakeLedger{}
	handler := SalesRecord(svc, nil)

	body := `{"date":"2024-03-01","location":"clubhouse","amount":"1","surprise":true}`
	req := staffContext(httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(svc.recorded) != 0 {
		t.Fatal("expected nothing recorded")
	}
}

func TestSalesRecordClosedDateEnvelope(t *testing.T) {
	svc := &fakeLedger{recordErr: pkgerrors.New(pkgerrors.CodeDateClosed, "date is closed")}
	handler := SalesRecord(svc, nil)

	body := `{"date":"2024-03-01","location":"clubhouse","amount":"1"}`
	req := staffContext(httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response did not decode: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeDateClosed) {
		t.Fatalf("unexpected error envelope %+v", envelope)
	}
}

func TestSalesDelete(t *testing.T) {
	svc := &fakeLedger{}
	id := uuid.New()

	router := chi.NewRouter()
	router.Delete("/sales/{id}", SalesDelete(svc, nil))

	req := staffContext(httptest.NewRequest(http.MethodDelete, "/sales/"+id.String(), nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != id {
		t.Fatalf("unexpected deletes %v", svc.deleted)
	}
}

func TestSalesDeleteRejectsBadID(t *testing.T) {
	svc := &fakeLedger{}

	router := chi.NewRouter()
	router.Delete("/sales/{id}", SalesDelete(svc, nil))

	req := staffContext(httptest.NewRequest(http.MethodDelete, "/sales/not-a-uuid", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(svc.deleted) != 0 {
		t.Fatal("expected no deletes")
	}
}
