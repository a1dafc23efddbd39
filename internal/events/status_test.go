package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db/models"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/enums"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name  string
		event *models.Event
		want  enums.EventStatus
	}{
		{"nil event", nil, ""},
		{"draft stays draft", &models.Event{Status: enums.EventStatusDraft, StartsAt: &past}, enums.EventStatusDraft},
		{"upcoming before start", &models.Event{Status: enums.EventStatusUpcoming, StartsAt: &future}, enums.EventStatusUpcoming},
		{"upcoming past start reads active", &models.Event{Status: enums.EventStatusUpcoming, StartsAt: &past}, enums.EventStatusActive},
		{"upcoming without start", &models.Event{Status: enums.EventStatusUpcoming}, enums.EventStatusUpcoming},
		{"completed stays completed", &models.Event{Status: enums.EventStatusCompleted, StartsAt: &past}, enums.EventStatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveStatus(tt.event, now))
		})
	}
}
