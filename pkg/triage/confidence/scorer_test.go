package confidence

import (
	"testing"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name           string
		classification float64
		retrieval      float64
		context        float64
		want           float64
	}{
		{name: "all zero", classification: 0, retrieval: 0, context: 0, want: 0},
		{name: "all one", classification: 1, retrieval: 1, context: 1, want: 1},
		{name: "classifier only", classification: 1, retrieval: 0, context: 0, want: 0.4},
		{name: "retrieval only", classification: 0, retrieval: 1, context: 0, want: 0.35},
		{name: "context only", classification: 0, retrieval: 0, context: 1, want: 0.25},
		{name: "clamps above one", classification: 5, retrieval: 5, context: 5, want: 1},
		{name: "clamps below zero", classification: -3, retrieval: 0, context: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.classification, tt.retrieval, tt.context, DefaultWeights)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldClarify(t *testing.T) {
	tests := []struct {
		name  string
		conf  float64
		count int
		max   int
		want  bool
	}{
		{name: "low confidence asks", conf: 0.3, count: 0, max: 15, want: true},
		{name: "high confidence skips", conf: 0.9, count: 0, max: 15, want: false},
		{name: "at threshold skips", conf: 0.7, count: 0, max: 15, want: false},
		{name: "bound reached forces progression", conf: 0.1, count: 15, max: 15, want: false},
		{name: "one below bound still asks", conf: 0.1, count: 14, max: 15, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldClarify(tt.conf, 0.7, tt.count, tt.max); got != tt.want {
				t.Errorf("ShouldClarify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregateDocumentScores(t *testing.T) {
	if got := AggregateDocumentScores(nil); got != 0 {
		t.Errorf("empty docs should score 0, got %v", got)
	}

	scores := []float64{0.9, 0.5}
	// Weighted: (0.9*1 + 0.5*0.5) / 1.5
	want := (0.9 + 0.25) / 1.5
	got := AggregateDocumentScores(scores)
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("AggregateDocumentScores() = %v, want %v", got, want)
	}

	// Top-ranked docs dominate
	reversed := []float64{0.5, 0.9}
	if AggregateDocumentScores(scores) <= AggregateDocumentScores(reversed) {
		t.Error("higher ranked score should weigh more")
	}
}

func TestMissingFieldsPenalty(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		want   float64
	}{
		{name: "no fields", fields: nil, want: 0},
		{name: "one ordinary field", fields: []string{"document"}, want: 0.1},
		{name: "one critical field", fields: []string{"date of incident"}, want: 0.15},
		{name: "penalty is capped", fields: []string{"date", "location", "amount", "party", "document", "duration", "employment"}, want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MissingFieldsPenalty(tt.fields)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("MissingFieldsPenalty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevelFor(t *testing.T) {
	cases := map[float64]string{
		0.95: "very_high",
		0.75: "high",
		0.55: "medium",
		0.35: "low",
		0.1:  "very_low",
	}
	for conf, want := range cases {
		if got := LevelFor(conf); got != want {
			t.Errorf("LevelFor(%v) = %q, want %q", conf, got, want)
		}
	}
}
