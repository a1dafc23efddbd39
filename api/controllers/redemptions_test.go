package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/api/middleware"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/redemptions"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db/models"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/enums"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/logger"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/pagination"
)

type testRedemptionsService struct {
	requestFn func(ctx context.Context, input redemptions.RequestInput) (*models.Redemption, error)
	rejectFn  func(ctx context.Context, id, adminID uuid.UUID, reason string) (*models.Redemption, error)
	getFn     func(ctx context.Context, id, actorID uuid.UUID, role enums.SystemRole) (*models.Redemption, error)
	cancelFn  func(ctx context.Context, input redemptions.CancelInput) (*models.Redemption, error)
}

func (s *testRedemptionsService) Request(ctx context.Context, input redemptions.RequestInput) (*models.Redemption, error) {
	if s.requestFn != nil {
		return s.requestFn(ctx, input)
	}
	return nil, nil
}

func (s *testRedemptionsService) Get(ctx context.Context, id, actorID uuid.UUID, role enums.SystemRole) (*models.Redemption, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id, actorID, role)
	}
	return nil, nil
}

func (s *testRedemptionsService) Approve(ctx context.Context, id, adminID uuid.UUID) (*models.Redemption, error) {
	return nil, nil
}

func (s *testRedemptionsService) Reject(ctx context.Context, id, adminID uuid.UUID, reason string) (*models.Redemption, error) {
	if s.rejectFn != nil {
		return s.rejectFn(ctx, id, adminID, reason)
	}
	return nil, nil
}

func (s *testRedemptionsService) Deliver(ctx context.Context, id, adminID uuid.UUID, notes *string) (*models.Redemption, error) {
	return nil, nil
}

func (s *testRedemptionsService) Cancel(ctx context.Context, input redemptions.CancelInput) (*models.Redemption, error) {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, input)
	}
	return nil, nil
}

func (s *testRedemptionsService) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Redemption, string, error) {
	return nil, "", nil
}

func (s *testRedemptionsService) ListByStatus(ctx context.Context, status enums.RedemptionStatus, params pagination.Params) ([]models.Redemption, string, error) {
	return nil, "", nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestRequestRedemptionSuccess(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	var captured redemptions.RequestInput
	svc := &testRedemptionsService{
		requestFn: func(ctx context.Context, input redemptions.RequestInput) (*models.Redemption, error) {
			captured = input
			return &models.Redemption{ID: uuid.New(), UserID: input.UserID, ProductID: input.ProductID, Status: enums.RedemptionStatusPending}, nil
		},
	}

	body := `{"product_id":"` + productID.String() + `","quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/redemptions", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))

	resp := httptest.NewRecorder()
	RequestRedemption(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if captured.UserID != userID {
		t.Fatalf("expected user %s got %s", userID, captured.UserID)
	}
	if captured.ProductID != productID {
		t.Fatalf("expected product %s got %s", productID, captured.ProductID)
	}
	if captured.Quantity != 2 {
		t.Fatalf("expected quantity 2 got %d", captured.Quantity)
	}
}

func TestRequestRedemptionRejectsBadBody(t *testing.T) {
	called := false
	svc := &testRedemptionsService{
		requestFn: func(ctx context.Context, input redemptions.RequestInput) (*models.Redemption, error) {
			called = true
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/redemptions", strings.NewReader(`{"quantity":0}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	RequestRedemption(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if called {
		t.Fatal("service should not be called on invalid body")
	}
}

func TestRequestRedemptionRequiresAuth(t *testing.T) {
	svc := &testRedemptionsService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/redemptions", strings.NewReader(`{}`))

	resp := httptest.NewRecorder()
	RequestRedemption(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRejectRedemptionRequiresReason(t *testing.T) {
	called := false
	svc := &testRedemptionsService{
		rejectFn: func(ctx context.Context, id, adminID uuid.UUID, reason string) (*models.Redemption, error) {
			called = true
			return nil, nil
		},
	}

	redemptionID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/redemptions/"+redemptionID.String()+"/reject", strings.NewReader(`{}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("redemptionID", redemptionID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	RejectRedemption(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if called {
		t.Fatal("service should not be called without a reason")
	}
}

func TestCancelRedemptionPassesActorRoleAndReason(t *testing.T) {
	userID := uuid.New()
	redemptionID := uuid.New()
	var captured redemptions.CancelInput
	svc := &testRedemptionsService{
		cancelFn: func(ctx context.Context, input redemptions.CancelInput) (*models.Redemption, error) {
			captured = input
			return &models.Redemption{ID: input.RedemptionID, Status: enums.RedemptionStatusCancelled}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/redemptions/"+redemptionID.String()+"/cancel", strings.NewReader(`{"reason":"ordered by mistake"}`))
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(enums.SystemRoleMember))
	req = req.WithContext(ctx)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("redemptionID", redemptionID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	CancelRedemption(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if captured.ActorUserID != userID {
		t.Fatalf("expected actor %s got %s", userID, captured.ActorUserID)
	}
	if captured.ActorRole != enums.SystemRoleMember {
		t.Fatalf("unexpected role %s", captured.ActorRole)
	}
	if captured.Reason != "ordered by mistake" {
		t.Fatalf("unexpected reason %q", captured.Reason)
	}
}

func TestCancelRedemptionAllowsEmptyBody(t *testing.T) {
	redemptionID := uuid.New()
	called := false
	svc := &testRedemptionsService{
		cancelFn: func(ctx context.Context, input redemptions.CancelInput) (*models.Redemption, error) {
			called = true
			return &models.Redemption{ID: input.RedemptionID, Status: enums.RedemptionStatusCancelled}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/redemptions/"+redemptionID.String()+"/cancel", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("redemptionID", redemptionID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	CancelRedemption(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if !called {
		t.Fatal("expected service call")
	}
}

func TestGetRedemptionPassesActorScope(t *testing.T) {
	userID := uuid.New()
	redemptionID := uuid.New()
	var gotActor uuid.UUID
	var gotRole enums.SystemRole
	svc := &testRedemptionsService{
		getFn: func(ctx context.Context, id, actorID uuid.UUID, role enums.SystemRole) (*models.Redemption, error) {
			gotActor = actorID
			gotRole = role
			return &models.Redemption{ID: id, UserID: actorID}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/redemptions/"+redemptionID.String(), nil)
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(enums.SystemRoleAdmin))
	req = req.WithContext(ctx)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("redemptionID", redemptionID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	GetRedemption(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotActor != userID {
		t.Fatalf("expected actor %s got %s", userID, gotActor)
	}
	if gotRole != enums.SystemRoleAdmin {
		t.Fatalf("unexpected role %s", gotRole)
	}
}

func TestRejectRedemptionPassesActorAndReason(t *testing.T) {
	adminID := uuid.New()
	redemptionID := uuid.New()
	var gotAdmin uuid.UUID
	var gotReason string
	svc := &testRedemptionsService{
		rejectFn: func(ctx context.Context, id, actor uuid.UUID, reason string) (*models.Redemption, error) {
			gotAdmin = actor
			gotReason = reason
			return &models.Redemption{ID: id, Status: enums.RedemptionStatusRejected}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/redemptions/"+redemptionID.String()+"/reject", strings.NewReader(`{"reason":"out of policy"}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), adminID.String()))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("redemptionID", redemptionID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	RejectRedemption(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotAdmin != adminID {
		t.Fatalf("expected admin %s got %s", adminID, gotAdmin)
	}
	if gotReason != "out of policy" {
		t.Fatalf("unexpected reason %q", gotReason)
	}
	var envelope struct {
		Data models.Redemption `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if envelope.Data.Status != enums.RedemptionStatusRejected {
		t.Fatalf("expected rejected status got %s", envelope.Data.Status)
	}
}
