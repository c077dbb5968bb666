package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/eventyard/eventyard-backend/internal/tickets"
	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
)

type testTicketsService struct {
	issueFn  func(ctx context.Context, actor tickets.Actor, params tickets.IssueParams) (*models.Ticket, error)
	scanFn   func(ctx context.Context, actor tickets.Actor, eventID uuid.UUID, code string) (*tickets.ScanResult, error)
	unscanFn func(ctx context.Context, actor tickets.Actor, ticketID uuid.UUID) (*models.Ticket, error)
}

func (s *testTicketsService) Issue(ctx context.Context, actor tickets.Actor, params tickets.IssueParams) (*models.Ticket, error) {
	if s.issueFn != nil {
		return s.issueFn(ctx, actor, params)
	}
	return nil, nil
}

func (s *testTicketsService) ListForHolder(ctx context.Context, holderUserID uuid.UUID) ([]models.Ticket, error) {
	return nil, nil
}

func (s *testTicketsService) ListForEvent(ctx context.Context, actor tickets.Actor, eventID uuid.UUID) ([]models.Ticket, error) {
	return nil, nil
}

func (s *testTicketsService) Scan(ctx context.Context, actor tickets.Actor, eventID uuid.UUID, code string) (*tickets.ScanResult, error) {
	if s.scanFn != nil {
		return s.scanFn(ctx, actor, eventID, code)
	}
	return nil, nil
}

func (s *testTicketsService) Unscan(ctx context.Context, actor tickets.Actor, ticketID uuid.UUID) (*models.Ticket, error) {
	if s.unscanFn != nil {
		return s.unscanFn(ctx, actor, ticketID)
	}
	return nil, nil
}

func TestScanTicketReturnsResultCodeInBody(t *testing.T) {
	userID := uuid.New()
	eventID := uuid.New()
	svc := &testTicketsService{
		scanFn: func(ctx context.Context, actor tickets.Actor, eid uuid.UUID, code string) (*tickets.ScanResult, error) {
			if actor.UserID != userID {
				t.Fatalf("unexpected actor %s", actor.UserID)
			}
			if eid != eventID {
				t.Fatalf("unexpected event %s", eid)
			}
			if code != "TKT-ABC123" {
				t.Fatalf("unexpected code %q", code)
			}
			return &tickets.ScanResult{Code: enums.ScanAlreadyScanned}, nil
		},
	}

	body := strings.NewReader(`{"code":"TKT-ABC123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/"+eventID.String()+"/scan", body)
	req = withTestIdentity(req, userID)
	req = addRouteParam(req, "eventID", eventID.String())

	resp := httptest.NewRecorder()
	ScanTicket(svc, testLogger())(resp, req)

	// Expected gate outcomes are data, not HTTP errors.
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Code string `json:"code"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Code != string(enums.ScanAlreadyScanned) {
		t.Fatalf("expected already_scanned got %s", envelope.Data.Code)
	}
}

func TestScanTicketRejectsMissingCode(t *testing.T) {
	eventID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/"+eventID.String()+"/scan", strings.NewReader(`{}`))
	req = withTestIdentity(req, uuid.New())
	req = addRouteParam(req, "eventID", eventID.String())

	resp := httptest.NewRecorder()
	ScanTicket(&testTicketsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestIssueTicketCreated(t *testing.T) {
	userID := uuid.New()
	eventID := uuid.New()
	holderID := uuid.New()
	svc := &testTicketsService{
		issueFn: func(ctx context.Context, actor tickets.Actor, params tickets.IssueParams) (*models.Ticket, error) {
			if params.EventID != eventID || params.HolderUserID != holderID || !params.Paid {
				t.Fatalf("unexpected params %+v", params)
			}
			return &models.Ticket{ID: uuid.New(), EventID: eventID, HolderUserID: holderID}, nil
		},
	}

	body := strings.NewReader(`{"event_id":"` + eventID.String() + `","holder_user_id":"` + holderID.String() + `","paid":true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tickets", body)
	req = withTestIdentity(req, userID)

	resp := httptest.NewRecorder()
	IssueTicket(svc, testLogger())(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
}
