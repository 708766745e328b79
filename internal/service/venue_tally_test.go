package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"venue-analyze-go/internal/model"
)

func TestVenueTally_Ranked(t *testing.T) {
	tally := NewVenueTally()
	for _, label := range []string{"ICML", "CVPR", "arXiv", "CVPR", "NeurIPS", "ICML", "CVPR", "AAAI"} {
		tally.Add(label)
	}

	assert.Equal(t, []model.VenueCount{
		{Label: "CVPR", Count: 3},
		{Label: "ICML", Count: 2},
		{Label: "arXiv", Count: 1},
		{Label: "NeurIPS", Count: 1},
		{Label: "AAAI", Count: 1},
	}, tally.Ranked())
	assert.Equal(t, 8, tally.Total())
	assert.Equal(t, 5, tally.Len())
}

func TestVenueTally_TiesKeepDiscoveryOrder(t *testing.T) {
	tally := NewVenueTally()
	labels := []string{"E", "D", "C", "B", "A"}
	for _, l := range labels {
		tally.Add(l)
	}

	ranked := tally.Ranked()
	for i, vc := range ranked {
		assert.Equal(t, labels[i], vc.Label)
		assert.Equal(t, 1, vc.Count)
	}
}

func TestVenueTally_Empty(t *testing.T) {
	tally := NewVenueTally()
	assert.Empty(t, tally.Ranked())
	assert.NotNil(t, tally.Ranked())
	assert.Zero(t, tally.Total())
}
