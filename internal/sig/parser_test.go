package sig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{
			name: "once daily",
			text: "Take 1 tablet once daily",
			want: 1,
		},
		{
			name: "twice daily",
			text: "1 spray each nostril twice daily",
			want: 2,
		},
		{
			name: "three times daily",
			text: "Apply to affected area three times daily",
			want: 3,
		},
		{
			name: "qid",
			text: "1 drop in each eye QID",
			want: 4,
		},
		{
			name: "once weekly beats once",
			text: "Inject 0.5 mg once weekly",
			want: 1.0 / 7.0,
		},
		{
			name: "every other week",
			text: "Inject 40 mg every other week",
			want: 1.0 / 14.0,
		},
		{
			name: "monthly",
			text: "Inject 1 mL once a month",
			want: 1.0 / 30.0,
		},
		{
			name: "prn q4h",
			text: "2 puffs every 4 hours as needed",
			want: 4.5,
		},
		{
			name: "prn q6h",
			text: "1 tablet q6h prn pain",
			want: 6.0,
		},
		{
			name: "prn q8h",
			text: "1 spray q8h prn",
			want: 2.5,
		},
		{
			name: "prn bid",
			text: "1 tablet twice daily as needed",
			want: 1.5,
		},
		{
			name: "prn without interval",
			text: "Use as needed",
			want: 1.0,
		},
		{
			name: "q6h without prn",
			text: "Take 1 capsule q6h",
			want: 4,
		},
		{
			name: "q8h without prn",
			text: "Take 1 tablet every 8 hours",
			want: 3,
		},
		{
			name: "q12h",
			text: "1 puff q12h",
			want: 2,
		},
		{
			name: "q4h without prn",
			text: "1 dose every 4 hours",
			want: 6,
		},
		{
			name: "numeric times per day",
			text: "Use 5 times per day",
			want: 5,
		},
		{
			name: "tid beats daily",
			text: "Take 1 tablet TID daily",
			want: 3,
		},
		{
			name: "no frequency defaults to once",
			text: "Apply sparingly",
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseFrequency(tt.text), 1e-9)
		})
	}
}

func TestExtractQuantities(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[Unit][]float64
	}{
		{
			name: "sprays",
			text: "2 sprays each nostril twice daily",
			want: map[Unit][]float64{UnitSprays: {2}},
		},
		{
			name: "puffs count as sprays",
			text: "Inhale 2 puffs every 6 hours",
			want: map[Unit][]float64{UnitSprays: {2}},
		},
		{
			name: "insulin units",
			text: "Inject 25 units before breakfast and 10 units at bedtime",
			want: map[Unit][]float64{UnitUnits: {25, 10}},
		},
		{
			name: "mg and ml together",
			text: "Inject 0.5 ml containing 40 mg weekly",
			want: map[Unit][]float64{UnitML: {0.5}, UnitMg: {40}},
		},
		{
			name: "drops",
			text: "Instill 1 drop in each eye twice daily",
			want: map[Unit][]float64{UnitDrops: {1}},
		},
		{
			name: "tablets and times daily",
			text: "Take 2 tablets 3 times daily",
			want: map[Unit][]float64{UnitTablets: {2}, UnitTimesDaily: {3}},
		},
		{
			name: "nothing numeric",
			text: "Apply a thin layer to the affected area",
			want: map[Unit][]float64{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractQuantities(tt.text))
		})
	}
}

func TestMentionsBothNostrils(t *testing.T) {
	assert.True(t, MentionsBothNostrils("1 spray in each nostril daily"))
	assert.True(t, MentionsBothNostrils("2 sprays per nostril BID"))
	assert.True(t, MentionsBothNostrils("1 spray bilat nares"))
	assert.False(t, MentionsBothNostrils("1 spray in left nostril daily"))
}

func TestFrequencyText(t *testing.T) {
	tests := []struct {
		frequency float64
		want      string
	}{
		{1, "once daily"},
		{2, "twice daily"},
		{3, "three times daily"},
		{4, "four times daily"},
		{1.0 / 7.0, "once weekly"},
		{1.0 / 14.0, "every other week"},
		{1.0 / 30.0, "once monthly"},
		{0.2, "every 5 days"},
		{4.5, "4.5 times daily"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FrequencyText(tt.frequency))
	}
}
