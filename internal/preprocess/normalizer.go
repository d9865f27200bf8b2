package preprocess

import (
	"fmt"
	"strings"

	"github.com/sipca/backend/internal/model"
	"github.com/sipca/backend/internal/water"
)

// ValidationError reports readings that are physically impossible. Fields
// lists every offending field so batch callers can surface all of them at
// once.
type ValidationError struct {
	RecordID string
	Fields   []water.Field
	Reason   string
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return fmt.Sprintf("invalid record %s: %s (%s)", e.RecordID, e.Reason, strings.Join(names, ", "))
}

// physicalRange bounds a reading to values a real water sample can take.
// Readings outside are sensor or data-entry errors, not extreme samples.
type physicalRange struct {
	min, max float64
}

var physicalRanges = map[water.Field]physicalRange{
	water.FieldPH:              {0, 14},
	water.FieldHardness:        {0, 1000},
	water.FieldSolids:          {0, 100000},
	water.FieldChloramines:     {0, 50},
	water.FieldSulfate:         {0, 2000},
	water.FieldConductivity:    {0, 5000},
	water.FieldOrganicCarbon:   {0, 100},
	water.FieldTrihalomethanes: {0, 500},
	water.FieldTurbidity:       {0, 50},
}

// Normalizer turns raw records into the feature vectors the classifier was
// trained on: missing readings are imputed with the training-time median,
// then every value is standard-scaled with the stored statistics. Pure:
// no state beyond the read-only scaler artifact.
type Normalizer struct {
	scaler *model.Scaler
	fields []water.Field
}

func NewNormalizer(scaler *model.Scaler) (*Normalizer, error) {
	fields := make([]water.Field, len(scaler.Features))
	for i, fs := range scaler.Features {
		f := water.Field(strings.ToLower(fs.Name))
		if _, ok := physicalRanges[f]; !ok {
			return nil, fmt.Errorf("scaler artifact names unknown feature %q", fs.Name)
		}
		fields[i] = f
	}
	return &Normalizer{scaler: scaler, fields: fields}, nil
}

// Normalize validates, imputes and scales one record. Absent fields never
// fail validation; present fields outside their physical range do.
func (n *Normalizer) Normalize(record water.Record) ([]float64, error) {
	var bad []water.Field
	for _, f := range n.fields {
		v, ok := record.Value(f)
		if !ok {
			continue
		}
		r := physicalRanges[f]
		if v < r.min || v > r.max {
			bad = append(bad, f)
		}
	}
	if len(bad) > 0 {
		return nil, &ValidationError{
			RecordID: record.ID,
			Fields:   bad,
			Reason:   "value outside physical range",
		}
	}

	vec := make([]float64, len(n.fields))
	for i, f := range n.fields {
		v, ok := record.Value(f)
		if !ok {
			v = n.scaler.Features[i].Median
		}
		vec[i] = n.scaler.Transform(i, v)
	}

	return vec, nil
}

// Fields exposes the feature order the normalizer emits.
func (n *Normalizer) Fields() []water.Field {
	out := make([]water.Field, len(n.fields))
	copy(out, n.fields)
	return out
}
