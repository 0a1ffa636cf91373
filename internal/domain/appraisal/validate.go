package appraisal

import "strings"

func validateRatings(entries []RatingInput) error {
	if len(entries) == 0 {
		return invalidInput("at least one rating is required")
	}
	seen := make(map[int64]bool, len(entries))
	for _, e := range entries {
		if e.QuestionID <= 0 {
			return invalidInput("questionId must be positive")
		}
		if seen[e.QuestionID] {
			return invalidInput("question %d is rated more than once", e.QuestionID)
		}
		seen[e.QuestionID] = true
		if e.Rating < MinRating || e.Rating > MaxRating {
			return invalidInput("rating for question %d must be between %d and %d", e.QuestionID, MinRating, MaxRating)
		}
	}
	return nil
}

func questionIDs(entries []RatingInput) []int64 {
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.QuestionID
	}
	return ids
}

func normalizeYear(raw string) (string, error) {
	year := strings.TrimSpace(raw)
	if len(year) != 4 {
		return "", invalidInput("year must have four digits")
	}
	for _, r := range year {
		if r < '0' || r > '9' {
			return "", invalidInput("year must have four digits")
		}
	}
	return year, nil
}
