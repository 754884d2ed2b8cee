package config

import (
	"time"

	"sabercli/pkg/contracts/domain"
)

// Application constants for the SABER analytics system.
const (
	AppName    = "SABER Pulse"
	AppVersion = "1.2.0"

	// Statistical defaults
	DefaultClipBound       = 3.5 // standard deviations
	DefaultRegressionFloor = 100 // minimum rows for a model fit
	DefaultSubgroupFloor   = 30  // minimum observations per KPI subgroup
	DefaultTestRatio       = 0.2
	DefaultRandomSeed      = 42
	DefaultTopN            = 10

	// Sentinel score values per exam family: SABER 3/5/9 encodes
	// exam-not-attempted as 100, SABER 11 as 0.
	SentinelSaber359 = 100.0
	SentinelSaber11  = 0.0

	// Rate limiting
	DefaultRateLimit = 100 // requests per minute
	DefaultBurstSize = 50

	// Server timeouts
	DefaultHTTPTimeout = 30 * time.Second
	DefaultFitTimeout  = 10 * time.Minute

	// File paths (relative to working directory)
	DefaultDataDir    = "data"
	DefaultReportsDir = "data/reports"
	DefaultLogsDir    = "logs"
)

// DefaultSubjects is the full subject vocabulary of the SABER 11 exam.
func DefaultSubjects() []string {
	return []string{
		domain.SubjectCriticalReading,
		domain.SubjectMathematics,
		domain.SubjectNaturalSciences,
		domain.SubjectSocialSciences,
		domain.SubjectEnglish,
		domain.SubjectGlobal,
	}
}

// DefaultFeatures is the contextual feature set for value-added fits.
func DefaultFeatures() []string {
	return []string{
		domain.AttrStratum,
		domain.AttrMotherEducation,
		domain.AttrFatherEducation,
		domain.AttrHasInternet,
		domain.AttrHasComputer,
		domain.AttrGender,
		domain.AttrSchoolType,
		domain.AttrArea,
	}
}

// DefaultGroupKeys returns the grouping-key tuple for a level. Aggregation
// at every level goes through the same parameterized key set; adding grade
// or year is a caller-side append, not a new code path.
func DefaultGroupKeys(level domain.Level) []string {
	switch level {
	case domain.LevelSchool:
		return []string{domain.FieldSchoolID}
	case domain.LevelMunicipality:
		return []string{domain.FieldMunicipalityID}
	case domain.LevelDepartment:
		return []string{domain.FieldDepartmentID}
	}
	return nil
}
