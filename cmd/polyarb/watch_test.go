package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

func TestTokenLabels(t *testing.T) {
	events := []domain.MarketEvent{{
		ID:    "1",
		Title: "Bitcoin above ___ on March 31?",
		Markets: []domain.Market{{
			ID:       "m1",
			Question: "Will Bitcoin be above $100,000?",
			Outcomes: [2]string{"Yes", "No"},
			TokenIDs: [2]string{"tok-yes", "tok-no"},
		}, {
			ID:       "m2",
			Outcomes: [2]string{"Yes", "No"},
			TokenIDs: [2]string{"tok-2", ""},
		}},
	}}

	labels := tokenLabels(events)

	assert.Len(t, labels, 3)
	assert.Equal(t, "Will Bitcoin be above $100,000? [Yes]", labels["tok-yes"])
	assert.Equal(t, "Will Bitcoin be above $100,000? [No]", labels["tok-no"])
	assert.Equal(t, "m2 [Yes]", labels["tok-2"])
}
