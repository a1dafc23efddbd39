package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/api/responses"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/api/validators"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/budgets"
	pkgerrors "github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/errors"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/logger"
)

type setBudgetRequest struct {
	AdminUserID      uuid.UUID `json:"admin_user_id" validate:"required"`
	Month            string    `json:"month" validate:"required"`
	BudgetLimit      int       `json:"budget_limit" validate:"required,gt=0"`
	IsHardLimit      bool      `json:"is_hard_limit"`
	WarningThreshold int       `json:"warning_threshold" validate:"omitempty,min=0,max=100"`
}

type validateAwardRequest struct {
	Points int `json:"points" validate:"required,gt=0"`
}

// SetBudget creates or updates an admin's monthly award budget.
func SetBudget(svc budgets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "budgets service unavailable"))
			return
		}

		var req setBudgetRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		budget, err := svc.SetBudget(r.Context(), budgets.SetBudgetInput{
			AdminUserID:      req.AdminUserID,
			Month:            req.Month,
			BudgetLimit:      req.BudgetLimit,
			IsHardLimit:      req.IsHardLimit,
			WarningThreshold: req.WarningThreshold,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, budget)
	}
}

// GetBudget returns one admin's budget for a month.
func GetBudget(svc budgets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "budgets service unavailable"))
			return
		}

		adminID, err := pathUUID(r, "adminID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		month := strings.TrimSpace(r.URL.Query().Get("month"))
		budget, err := svc.GetBudget(r.Context(), adminID, month)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, budget)
	}
}

// ListBudgetsByMonth returns every admin budget for a month.
func ListBudgetsByMonth(svc budgets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "budgets service unavailable"))
			return
		}

		month := strings.TrimSpace(r.URL.Query().Get("month"))
		items, err := svc.ListByMonth(r.Context(), month)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"budgets": items})
	}
}

// ValidateAward previews whether an award would fit inside the calling
// admin's current monthly budget.
func ValidateAward(svc budgets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "budgets service unavailable"))
			return
		}

		actor, err := actorUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req validateAwardRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ValidatePointsAward(r.Context(), actor, req.Points)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
