package valueadded

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	apperrors "sabercli/internal/errors"
	"sabercli/pkg/contracts/domain"
)

// LabelEncoder maps the categorical values of one feature onto consecutive
// numeric indices. Classes are indexed in sorted order so the same value
// set always produces the same encoding.
type LabelEncoder struct {
	Feature string
	classes map[string]float64
}

// fitLabelEncoder builds an encoder over the observed values of a feature.
func fitLabelEncoder(feature string, values []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	ordered := make([]string, 0, len(seen))
	for v := range seen {
		ordered = append(ordered, v)
	}
	sort.Strings(ordered)

	classes := make(map[string]float64, len(ordered))
	for i, v := range ordered {
		classes[v] = float64(i)
	}
	return &LabelEncoder{Feature: feature, classes: classes}
}

// Transform encodes a single value. Values never seen during the fit
// report ok=false.
func (e *LabelEncoder) Transform(value string) (float64, bool) {
	v, ok := e.classes[value]
	return v, ok
}

// Classes returns the number of distinct classes the encoder knows.
func (e *LabelEncoder) Classes() int {
	return len(e.classes)
}

// EncoderSet is the complete categorical encoding of one fit. Its ID is
// stamped on the fit report so residual sets produced under different
// encodings can be told apart.
type EncoderSet struct {
	ID       string
	Features []string
	encoders map[string]*LabelEncoder
}

// fitEncoderSet builds one encoder per feature over the filtered records.
func fitEncoderSet(records []domain.StudentRecord, features []string) *EncoderSet {
	set := &EncoderSet{
		ID:       uuid.New().String(),
		Features: features,
		encoders: make(map[string]*LabelEncoder, len(features)),
	}
	for _, feature := range features {
		values := make([]string, 0, len(records))
		for _, rec := range records {
			values = append(values, rec.Field(feature))
		}
		set.encoders[feature] = fitLabelEncoder(feature, values)
	}
	return set
}

// Encode converts a record's feature values into the model's numeric
// representation, in feature order.
func (s *EncoderSet) Encode(rec domain.StudentRecord) ([]float64, error) {
	x := make([]float64, len(s.Features))
	for i, feature := range s.Features {
		v, ok := s.encoders[feature].Transform(rec.Field(feature))
		if !ok {
			return nil, apperrors.NewEncodingMismatch("encode",
				fmt.Sprintf("value %q of feature %q was not part of this fit", rec.Field(feature), feature))
		}
		x[i] = v
	}
	return x, nil
}
