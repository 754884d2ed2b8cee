package domain

import "strconv"

// Canonical column vocabulary for SABER exam records. All canonicalized
// records use these lowercase names regardless of how the source year
// spelled them.
const (
	FieldSchoolID         = "cole_cod_dane_establecimiento"
	FieldSchoolName       = "cole_nombre_establecimiento"
	FieldMunicipalityID   = "cole_cod_mcpio_ubicacion"
	FieldMunicipalityName = "cole_mcpio_ubicacion"
	FieldDepartmentID     = "cole_cod_depto_ubicacion"
	FieldDepartmentName   = "cole_depto_ubicacion"
	FieldGrade            = "estu_grado"
	FieldPeriod           = "periodo"
	FieldYear             = "year"

	AttrSchoolType      = "cole_naturaleza"
	AttrSchoolCharacter = "cole_caracter"
	AttrSchoolGender    = "cole_genero"
	AttrArea            = "cole_area_ubicacion"
	AttrGender          = "estu_genero"
	AttrEthnicMinority  = "estu_tieneetnia"
	AttrStratum         = "fami_estratovivienda"
	AttrMotherEducation = "fami_educacionmadre"
	AttrFatherEducation = "fami_educacionpadre"
	AttrHasInternet     = "fami_tieneinternet"
	AttrHasComputer     = "fami_tienecomputador"

	SubjectCriticalReading = "punt_lectura_critica"
	SubjectMathematics     = "punt_matematicas"
	SubjectNaturalSciences = "punt_c_naturales"
	SubjectSocialSciences  = "punt_sociales_ciudadanas"
	SubjectEnglish         = "punt_ingles"
	SubjectGlobal          = "punt_global"
)

// Well-known categorical values used by subgroup computations.
const (
	AreaUrban     = "URBANO"
	AreaRural     = "RURAL"
	GenderFemale  = "F"
	GenderMale    = "M"
	MinorityFlag  = "S"
)

// Level identifies the organizational level an aggregate or fit reports at.
type Level string

const (
	LevelStudent      Level = "student"
	LevelSchool       Level = "school"
	LevelMunicipality Level = "municipality"
	LevelDepartment   Level = "department"
	LevelNational     Level = "national"
)

// Valid reports whether the level is one of the known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelStudent, LevelSchool, LevelMunicipality, LevelDepartment, LevelNational:
		return true
	}
	return false
}

// EntityField returns the canonical identifier field for the level, or ""
// for the student and national levels which have no entity identifier.
func (l Level) EntityField() string {
	switch l {
	case LevelSchool:
		return FieldSchoolID
	case LevelMunicipality:
		return FieldMunicipalityID
	case LevelDepartment:
		return FieldDepartmentID
	}
	return ""
}

// StudentRecord is one exam sitting in canonical form. Records are value
// objects: once produced by the canonicalizer they are never mutated, and
// every downstream table is recomputed from them rather than patched.
type StudentRecord struct {
	SchoolID       string             `json:"school_id"`
	SchoolName     string             `json:"school_name,omitempty"`
	MunicipalityID string             `json:"municipality_id,omitempty"`
	DepartmentID   string             `json:"department_id,omitempty"`
	Grade          string             `json:"grade,omitempty"`
	Year           int                `json:"year,omitempty"`
	Period         string             `json:"period,omitempty"`
	Scores         map[string]float64 `json:"scores"`
	Attributes     map[string]string  `json:"attributes,omitempty"`
}

// Score returns the record's score for a subject. Missing subjects (never
// present, or converted from a sentinel value) report ok=false.
func (r StudentRecord) Score(subject string) (float64, bool) {
	v, ok := r.Scores[subject]
	return v, ok
}

// Attribute returns the categorical attribute value, or "" when absent.
func (r StudentRecord) Attribute(name string) string {
	return r.Attributes[name]
}

// Field resolves an identifier or categorical field by canonical name.
// Identifier fields are first-class struct fields; everything else comes
// from the attribute map.
func (r StudentRecord) Field(name string) string {
	switch name {
	case FieldSchoolID:
		return r.SchoolID
	case FieldSchoolName:
		return r.SchoolName
	case FieldMunicipalityID:
		return r.MunicipalityID
	case FieldDepartmentID:
		return r.DepartmentID
	case FieldGrade:
		return r.Grade
	case FieldPeriod:
		return r.Period
	case FieldYear:
		if r.Year == 0 {
			return ""
		}
		return strconv.Itoa(r.Year)
	}
	return r.Attributes[name]
}
