package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipca/backend/internal/model"
	"github.com/sipca/backend/internal/water"
)

// Identity scaling (mean 0, std 1) so normalized vectors equal raw values
// and imputation is visible directly.
func identityScaler() *model.Scaler {
	s := &model.Scaler{}
	for i, f := range water.Fields {
		s.Features = append(s.Features, model.FeatureStats{
			Name:   string(f),
			Mean:   0,
			Std:    1,
			Median: float64(i + 1),
		})
	}
	return s
}

func fullRecord() water.Record {
	r := water.Record{ID: "sample-1"}
	r.Set(water.FieldPH, 7.2)
	r.Set(water.FieldHardness, 180)
	r.Set(water.FieldSolids, 20000)
	r.Set(water.FieldChloramines, 6.5)
	r.Set(water.FieldSulfate, 320)
	r.Set(water.FieldConductivity, 420)
	r.Set(water.FieldOrganicCarbon, 14)
	r.Set(water.FieldTrihalomethanes, 65)
	r.Set(water.FieldTurbidity, 3.8)
	return r
}

func TestNewNormalizer_RejectsUnknownFeature(t *testing.T) {
	s := identityScaler()
	s.Features[0].Name = "salinity"

	_, err := NewNormalizer(s)
	assert.Error(t, err)
}

func TestNormalize_FullRecord(t *testing.T) {
	n, err := NewNormalizer(identityScaler())
	require.NoError(t, err)

	vec, err := n.Normalize(fullRecord())
	require.NoError(t, err)
	require.Len(t, vec, len(water.Fields))
	assert.InDelta(t, 7.2, vec[0], 1e-9)
	assert.InDelta(t, 3.8, vec[8], 1e-9)
}

func TestNormalize_ImputesMissingWithMedian(t *testing.T) {
	n, err := NewNormalizer(identityScaler())
	require.NoError(t, err)

	r := fullRecord()
	r.PH = nil
	r.Sulfate = nil

	vec, err := n.Normalize(r)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vec[0], 1e-9, "missing pH takes the training median")
	assert.InDelta(t, 5.0, vec[4], 1e-9, "missing sulfate takes the training median")
}

func TestNormalize_EmptyRecordIsAllMedians(t *testing.T) {
	n, err := NewNormalizer(identityScaler())
	require.NoError(t, err)

	vec, err := n.Normalize(water.Record{ID: "empty"})
	require.NoError(t, err)
	for i := range vec {
		assert.InDelta(t, float64(i+1), vec[i], 1e-9)
	}
}

func TestNormalize_RejectsImpossibleValues(t *testing.T) {
	n, err := NewNormalizer(identityScaler())
	require.NoError(t, err)

	r := fullRecord()
	r.Set(water.FieldPH, 15)
	r.Set(water.FieldTurbidity, -2)

	_, err = n.Normalize(r)
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "sample-1", vErr.RecordID)
	assert.ElementsMatch(t, []water.Field{water.FieldPH, water.FieldTurbidity}, vErr.Fields)
}

func TestNormalize_BoundaryValuesPass(t *testing.T) {
	n, err := NewNormalizer(identityScaler())
	require.NoError(t, err)

	r := fullRecord()
	r.Set(water.FieldPH, 0)
	r.Set(water.FieldTurbidity, 50)

	_, err = n.Normalize(r)
	assert.NoError(t, err)
}

func TestFields_MatchesScalerOrder(t *testing.T) {
	n, err := NewNormalizer(identityScaler())
	require.NoError(t, err)
	assert.Equal(t, water.Fields, n.Fields())
}
