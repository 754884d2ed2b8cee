package canonical

import (
	"strings"

	"sabercli/pkg/contracts/domain"
)

// Vocabulary maps raw column names onto the canonical schema. Matching is
// case-insensitive; aliases cover renames the source corpus has used across
// years and exam families.
type Vocabulary struct {
	aliases map[string]string
}

// DefaultVocabulary returns the SABER column vocabulary. Every canonical
// name maps to itself, plus the aliases seen in the historical exports.
func DefaultVocabulary() *Vocabulary {
	v := &Vocabulary{aliases: make(map[string]string)}

	for _, name := range []string{
		domain.FieldSchoolID,
		domain.FieldSchoolName,
		domain.FieldMunicipalityID,
		domain.FieldMunicipalityName,
		domain.FieldDepartmentID,
		domain.FieldDepartmentName,
		domain.FieldGrade,
		domain.FieldPeriod,
		domain.FieldYear,
		domain.AttrSchoolType,
		domain.AttrSchoolCharacter,
		domain.AttrSchoolGender,
		domain.AttrArea,
		domain.AttrGender,
		domain.AttrEthnicMinority,
		domain.AttrStratum,
		domain.AttrMotherEducation,
		domain.AttrFatherEducation,
		domain.AttrHasInternet,
		domain.AttrHasComputer,
		domain.SubjectCriticalReading,
		domain.SubjectMathematics,
		domain.SubjectNaturalSciences,
		domain.SubjectSocialSciences,
		domain.SubjectEnglish,
		domain.SubjectGlobal,
	} {
		v.aliases[name] = name
	}

	// Aliases from older exports and aggregated extracts.
	v.Alias("codigo", domain.FieldSchoolID)
	v.Alias("muni_id", domain.FieldMunicipalityID)
	v.Alias("grado", domain.FieldGrade)
	v.Alias("anio", domain.FieldYear)
	v.Alias("punt_lenguaje", domain.SubjectCriticalReading)

	return v
}

// Alias registers a raw column name for a canonical one.
func (v *Vocabulary) Alias(raw, canonical string) {
	v.aliases[normalize(raw)] = canonical
}

// Resolve maps a raw column name to its canonical name. Unknown columns
// resolve to "" and are ignored by the canonicalizer.
func (v *Vocabulary) Resolve(raw string) string {
	return v.aliases[normalize(raw)]
}

// IsSubject reports whether a canonical name is a score column.
func IsSubject(name string) bool {
	switch name {
	case domain.SubjectCriticalReading,
		domain.SubjectMathematics,
		domain.SubjectNaturalSciences,
		domain.SubjectSocialSciences,
		domain.SubjectEnglish,
		domain.SubjectGlobal:
		return true
	}
	return false
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
