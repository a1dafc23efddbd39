package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/api/responses"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/api/validators"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/events"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/enums"
	pkgerrors "github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/errors"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/logger"
)

type createEventRequest struct {
	Name            string     `json:"name" validate:"required,max=200"`
	Description     *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	TotalPointsPool int        `json:"total_points_pool" validate:"required,gt=0"`
}

type awardRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Points int       `json:"points" validate:"required,gt=0"`
	Rank   *int      `json:"rank,omitempty" validate:"omitempty,gt=0"`
}

type bulkAwardRequest struct {
	Awards []awardRequest `json:"awards" validate:"required,min=1,dive"`
}

type eventListResponse struct {
	Events     any    `json:"events"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// CreateEvent creates a draft reward event owned by the calling admin.
func CreateEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "events service unavailable"))
			return
		}

		actor, err := actorUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createEventRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.Create(r.Context(), events.CreateEventInput{
			Name:            req.Name,
			Description:     req.Description,
			StartsAt:        req.StartsAt,
			TotalPointsPool: req.TotalPointsPool,
			CreatedBy:       actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, event)
	}
}

// GetEvent returns a single event by id.
func GetEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "events service unavailable"))
			return
		}

		id, err := pathUUID(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"event":            event,
			"effective_status": events.EffectiveStatus(event, time.Now()),
		})
	}
}

// ListEvents returns events newest first, optionally filtered by status.
func ListEvents(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "events service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.EventStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseEventStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		items, next, err := svc.List(r.Context(), status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, eventListResponse{Events: items, NextCursor: next})
	}
}

// PublishEvent moves a draft event to upcoming.
func PublishEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return eventTransition(svc, logg, "published", func(s events.Service, r *http.Request, id uuid.UUID) error {
		return s.Publish(r.Context(), id)
	})
}

// ActivateEvent moves an upcoming event to active.
func ActivateEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return eventTransition(svc, logg, "activated", func(s events.Service, r *http.Request, id uuid.UUID) error {
		return s.Activate(r.Context(), id)
	})
}

// CompleteEvent moves an active event to completed, opening it for awards.
func CompleteEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return eventTransition(svc, logg, "completed", func(s events.Service, r *http.Request, id uuid.UUID) error {
		return s.Complete(r.Context(), id)
	})
}

// CancelEvent cancels a draft or upcoming event.
func CancelEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return eventTransition(svc, logg, "cancelled", func(s events.Service, r *http.Request, id uuid.UUID) error {
		return s.Cancel(r.Context(), id)
	})
}

func eventTransition(svc events.Service, logg *logger.Logger, outcome string, apply func(events.Service, *http.Request, uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "events service unavailable"))
			return
		}

		id, err := pathUUID(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := apply(svc, r, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"event_id": id.String(), "status": outcome})
	}
}

// RegisterForEvent registers the calling user as a participant.
func RegisterForEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "events service unavailable"))
			return
		}

		eventID, err := pathUUID(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		participant, err := svc.RegisterParticipant(r.Context(), eventID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, participant)
	}
}

// ListEventParticipants returns everyone registered for the event.
func ListEventParticipants(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "events service unavailable"))
			return
		}

		eventID, err := pathUUID(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		participants, err := svc.ListParticipants(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"participants": participants})
	}
}

// ListEventAwards returns participants that have been paid from the pool.
func ListEventAwards(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "events service unavailable"))
			return
		}

		eventID, err := pathUUID(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		awards, err := svc.ListAwards(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"awards": awards})
	}
}

// AwardEventPoints pays one participant out of the event pool.
func AwardEventPoints(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "events service unavailable"))
			return
		}

		eventID, err := pathUUID(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req awardRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		participant, err := svc.AwardPoints(r.Context(), events.AwardInput{
			EventID:   eventID,
			UserID:    req.UserID,
			Points:    req.Points,
			Rank:      req.Rank,
			AwardedBy: actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, participant)
	}
}

// BulkAwardEventPoints pays a batch of participants in one transaction.
// Any failing award rolls back the entire batch.
func BulkAwardEventPoints(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "events service unavailable"))
			return
		}

		eventID, err := pathUUID(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req bulkAwardRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inputs := make([]events.AwardInput, 0, len(req.Awards))
		for _, award := range req.Awards {
			inputs = append(inputs, events.AwardInput{
				EventID:   eventID,
				UserID:    award.UserID,
				Points:    award.Points,
				Rank:      award.Rank,
				AwardedBy: actor,
			})
		}

		awarded, err := svc.BulkAwardPoints(r.Context(), inputs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"awards": awarded})
	}
}

// GetEventPool reports how much of the pool is still unawarded.
func GetEventPool(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "events service unavailable"))
			return
		}

		eventID, err := pathUUID(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		remaining, err := svc.RemainingPool(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"event_id": eventID, "remaining_pool": remaining})
	}
}
