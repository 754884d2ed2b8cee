package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStudentRecord_Field(t *testing.T) {
	rec := StudentRecord{
		SchoolID:       "111001",
		SchoolName:     "COLEGIO A",
		MunicipalityID: "05001",
		DepartmentID:   "05",
		Grade:          "11",
		Year:           2022,
		Period:         "20221",
		Attributes:     map[string]string{AttrArea: AreaUrban},
	}

	tests := []struct {
		field string
		want  string
	}{
		{FieldSchoolID, "111001"},
		{FieldSchoolName, "COLEGIO A"},
		{FieldMunicipalityID, "05001"},
		{FieldDepartmentID, "05"},
		{FieldGrade, "11"},
		{FieldPeriod, "20221"},
		{FieldYear, "2022"},
		{AttrArea, AreaUrban},
		{"no_such_field", ""},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, rec.Field(tt.field))
		})
	}
}

func TestStudentRecord_Field_ZeroYearIsMissing(t *testing.T) {
	assert.Equal(t, "", StudentRecord{}.Field(FieldYear))
}
