package controllers

import (
	"net/http"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/api/responses"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/api/validators"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/accounts"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/enums"
	pkgerrors "github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/errors"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/logger"
)

type manualEntryRequest struct {
	Points      int    `json:"points" validate:"required,gt=0"`
	Description string `json:"description" validate:"required,max=500"`
}

type transactionListResponse struct {
	Transactions any    `json:"transactions"`
	NextCursor   string `json:"next_cursor,omitempty"`
}

// GetMyAccount returns the caller's points account, creating it on first use.
func GetMyAccount(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "points service unavailable"))
			return
		}

		userID, err := actorUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.GetOrCreate(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, account)
	}
}

// ListMyTransactions returns the caller's journal entries, newest first.
func ListMyTransactions(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "points service unavailable"))
			return
		}

		userID, err := actorUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, next, err := svc.ListTransactions(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transactionListResponse{Transactions: entries, NextCursor: next})
	}
}

// GetUserAccount returns a user's points account for admin review.
func GetUserAccount(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "points service unavailable"))
			return
		}

		userID, err := pathUUID(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, account)
	}
}

// ListUserTransactions returns a user's journal entries for admin review.
func ListUserTransactions(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "points service unavailable"))
			return
		}

		userID, err := pathUUID(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, next, err := svc.ListTransactions(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transactionListResponse{Transactions: entries, NextCursor: next})
	}
}

// AdminCreditPoints applies a manual credit to a user's account.
func AdminCreditPoints(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return manualEntry(svc, logg, true)
}

// AdminDebitPoints applies a manual debit to a user's account.
func AdminDebitPoints(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return manualEntry(svc, logg, false)
}

func manualEntry(svc accounts.Service, logg *logger.Logger, credit bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "points service unavailable"))
			return
		}

		userID, err := pathUUID(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req manualEntryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := accounts.EntryInput{
			UserID:      userID,
			Points:      req.Points,
			Source:      enums.PointsSourceManual,
			Description: req.Description,
		}

		apply := svc.Debit
		if credit {
			apply = svc.Credit
		}
		entry, err := apply(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}
