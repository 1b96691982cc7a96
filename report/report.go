// Package report computes per-question response breakdowns from a form and
// its stored submissions. It holds no state of its own: every figure is
// derived on demand from what the stores return.
package report

import (
	"github.com/avollaro/formsmith/model"
)

// Rating buckets, best to worst. All five labels appear in every rating
// breakdown, zero-filled when unused.
const (
	LabelVeryGood = "Very Good"
	LabelGood     = "Good"
	LabelMedium   = "Medium"
	LabelPoor     = "Poor"
	LabelVeryPoor = "Very Poor"
)

var ratingLabels = map[int]string{
	5: LabelVeryGood,
	4: LabelGood,
	3: LabelMedium,
	2: LabelPoor,
	1: LabelVeryPoor,
}

var ratingWeights = map[string]int{
	LabelVeryGood: 5,
	LabelGood:     4,
	LabelMedium:   3,
	LabelPoor:     2,
	LabelVeryPoor: 1,
}

type QuestionStats struct {
	QuestionID string         `json:"questionId"`
	Label      string         `json:"label"`
	Type       string         `json:"type"`
	Total      int            `json:"total"`
	Breakdown  map[string]int `json:"breakdown"`
	// Average is only meaningful for rating questions.
	Average float64 `json:"average,omitempty"`
}

// WeakestArea points at the rating question with the lowest average score.
type WeakestArea struct {
	QuestionID string  `json:"questionId"`
	Label      string  `json:"label"`
	Average    float64 `json:"average"`
}

type Report struct {
	FormID           string          `json:"formId"`
	Title            string          `json:"title"`
	TotalSubmissions int             `json:"totalSubmissions"`
	Questions        []QuestionStats `json:"questions"`
	WeakestArea      *WeakestArea    `json:"weakestArea,omitempty"`
}

// Build aggregates every answerable question of the form. Section headers
// carry no answers and are skipped.
func Build(form *model.Form, subs []model.Submission) Report {
	rep := Report{
		FormID:           form.ID,
		Title:            form.Title,
		TotalSubmissions: len(subs),
		Questions:        []QuestionStats{},
	}

	for _, q := range form.Questions {
		if q.IsSection() {
			continue
		}
		stats := questionStats(q, subs)
		if q.Type == model.TypeRating {
			stats.Average = AverageRating(stats)
		}
		rep.Questions = append(rep.Questions, stats)
	}

	rep.WeakestArea = weakestArea(form, subs)
	return rep
}

func questionStats(q model.Question, subs []model.Submission) QuestionStats {
	stats := QuestionStats{
		QuestionID: q.ID,
		Label:      q.Label,
		Type:       q.Type,
		Breakdown:  map[string]int{},
	}

	for _, sub := range subs {
		answer, ok := sub.Answers[q.ID]
		if !ok || !model.AnswerPresent(answer) {
			continue
		}
		stats.Total++

		if q.Type == model.TypeRating {
			// Out-of-range or unparseable values count toward the total
			// but land in no bucket.
			if n, ok := model.AnswerRating(answer); ok {
				if label, ok := ratingLabels[n]; ok {
					stats.Breakdown[label]++
				}
			}
			continue
		}

		if opts, ok := model.AnswerList(answer); ok {
			// one submission can raise several option buckets
			for _, opt := range opts {
				stats.Breakdown[opt]++
			}
			continue
		}

		stats.Breakdown[model.AnswerString(answer)]++
	}

	if q.Type == model.TypeRating {
		for _, label := range ratingLabels {
			if _, ok := stats.Breakdown[label]; !ok {
				stats.Breakdown[label] = 0
			}
		}
	}

	return stats
}

// AverageRating computes the weighted mean of a rating breakdown over the
// question's total answer count. With no answers the result is 0.0, never a
// division error.
func AverageRating(stats QuestionStats) float64 {
	sum := 0
	for label, weight := range ratingWeights {
		sum += weight * stats.Breakdown[label]
	}

	total := stats.Total
	if total == 0 {
		total = 1
	}
	return float64(sum) / float64(total)
}

// weakestArea finds the rating question with the lowest average over its
// in-range numeric answers. Ties keep the first question encountered.
func weakestArea(form *model.Form, subs []model.Submission) *WeakestArea {
	var weakest *WeakestArea
	for _, q := range form.Questions {
		if q.Type != model.TypeRating {
			continue
		}

		score, count := 0, 0
		for _, sub := range subs {
			n, ok := model.AnswerRating(sub.Answers[q.ID])
			if ok && n >= 1 && n <= 5 {
				score += n
				count++
			}
		}
		if count == 0 {
			continue
		}

		avg := float64(score) / float64(count)
		if weakest == nil || avg < weakest.Average {
			weakest = &WeakestArea{QuestionID: q.ID, Label: q.Label, Average: avg}
		}
	}
	return weakest
}
