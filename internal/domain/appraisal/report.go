package appraisal

import "sort"

// BuildReport produces one row per question in catalog order. The PM average is the
// mean of every submitted rating for the question, or 0 when nobody rated it.
func BuildReport(questions []Question, pmRatings, selfRatings []QuestionRating) []ReportRow {
	type acc struct {
		sum   int
		count int
	}
	pm := make(map[int64]*acc, len(questions))
	for _, r := range pmRatings {
		a, ok := pm[r.QuestionID]
		if !ok {
			a = &acc{}
			pm[r.QuestionID] = a
		}
		a.sum += r.Rating
		a.count++
	}
	self := make(map[int64]int, len(selfRatings))
	for _, r := range selfRatings {
		self[r.QuestionID] = r.Rating
	}

	rows := make([]ReportRow, 0, len(questions))
	for _, q := range questions {
		row := ReportRow{QuestionID: q.ID, QuestionText: q.Text, Category: q.Category}
		if a, ok := pm[q.ID]; ok && a.count > 0 {
			row.PMAverageRating = float64(a.sum) / float64(a.count)
		}
		if rating, ok := self[q.ID]; ok {
			rating := rating
			row.SelfRating = &rating
		}
		rows = append(rows, row)
	}
	return rows
}

// BuildFeedback keeps the commented ratings, ordered by review then rating.
func BuildFeedback(comments []ReviewComment) []FeedbackRow {
	kept := make([]ReviewComment, 0, len(comments))
	for _, c := range comments {
		if c.Comment == "" {
			continue
		}
		kept = append(kept, c)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].ReviewID == kept[j].ReviewID {
			return kept[i].RatingID < kept[j].RatingID
		}
		return kept[i].ReviewID < kept[j].ReviewID
	})

	rows := make([]FeedbackRow, 0, len(kept))
	for _, c := range kept {
		rows = append(rows, FeedbackRow{
			PMRatingID:            c.RatingID,
			QuestionText:          c.QuestionText,
			PMName:                c.ReviewerName,
			Rating:                c.Rating,
			Comment:               c.Comment,
			ExistingClarification: c.Clarification,
		})
	}
	return rows
}
