package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/mathmindlabs/mathmind-backend/api/middleware"
	"github.com/mathmindlabs/mathmind-backend/internal/calculations"
	"github.com/mathmindlabs/mathmind-backend/pkg/pagination"
)

type stubCalculationService struct {
	saved    *calculations.CalculationDTO
	saveErr  error
	page     *calculations.CalculationList
	listErr  error
	lastUser int64
	lastDTO  calculations.SaveCalculationDTO
	lastPage pagination.Params
}

func (s *stubCalculationService) Save(_ context.Context, userID int64, dto calculations.SaveCalculationDTO) (*calculations.CalculationDTO, error) {
	s.lastUser = userID
	s.lastDTO = dto
	return s.saved, s.saveErr
}

func (s *stubCalculationService) List(_ context.Context, userID int64, params pagination.Params) (*calculations.CalculationList, error) {
	s.lastUser = userID
	s.lastPage = params
	return s.page, s.listErr
}

func authedRequest(method, target string, body *bytes.Buffer, userID int64) *http.Request {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
	}
	ctx := middleware.WithUserID(req.Context(), userID)
	return req.WithContext(ctx)
}

func TestCalculationSaveCreatesEntry(t *testing.T) {
	svc := &stubCalculationService{
		saved: &calculations.CalculationDTO{ID: uuid.New(), UserID: 7, Type: "basic", Input: "1+1", Result: "2"},
	}
	handler := CalculationSave(svc, nil)

	body := bytes.NewBufferString(`{"type":"basic","input":"1+1","result":"2"}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/calculations", body, 7))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if svc.lastUser != 7 {
		t.Fatalf("expected user 7 got %d", svc.lastUser)
	}
	if svc.lastDTO.Result == nil || *svc.lastDTO.Result != "2" {
		t.Fatalf("unexpected result %v", svc.lastDTO.Result)
	}
}

func TestCalculationSaveRequiresAuthContext(t *testing.T) {
	handler := CalculationSave(&stubCalculationService{}, nil)

	body := bytes.NewBufferString(`{"type":"basic","input":"1+1","result":"2"}`)
	req := httptest.NewRequest(http.MethodPost, "/calculations", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestCalculationSaveRejectsMissingResult(t *testing.T) {
	svc := &stubCalculationService{}
	handler := CalculationSave(svc, nil)

	body := bytes.NewBufferString(`{"type":"basic","input":"1+1"}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/calculations", body, 7))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.lastUser != 0 {
		t.Fatal("service must not be called on validation failure")
	}
}

func TestCalculationListPassesPagination(t *testing.T) {
	svc := &stubCalculationService{
		page: &calculations.CalculationList{
			Calculations: []calculations.CalculationDTO{{ID: uuid.New(), UserID: 7}},
			NextCursor:   "cursor-2",
		},
	}
	handler := CalculationList(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/calculations?limit=10&cursor=abc", nil, 7))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lastPage.Limit != 10 || svc.lastPage.Cursor != "abc" {
		t.Fatalf("unexpected pagination %+v", svc.lastPage)
	}
	var envelope struct {
		Data calculations.CalculationList `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.NextCursor != "cursor-2" {
		t.Fatalf("unexpected cursor %q", envelope.Data.NextCursor)
	}
}

func TestCalculationListRejectsBadLimit(t *testing.T) {
	handler := CalculationList(&stubCalculationService{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/calculations?limit=abc", nil, 7))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
