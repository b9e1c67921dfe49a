package scoring

import "github.com/aluiziolira/go-scrape-cars/models"

// AssignGrade buckets a rounded score. Each bucket is closed at its upper
// bound: 28 is Excellent, anything above is Outstanding.
func AssignGrade(score float64) models.Grade {
	switch {
	case score > 28:
		return models.GradeOutstanding
	case score > 24:
		return models.GradeExcellent
	case score > 19:
		return models.GradeGood
	case score > 14:
		return models.GradeDecent
	case score > 9:
		return models.GradeNotGood
	default:
		return models.GradeBad
	}
}
