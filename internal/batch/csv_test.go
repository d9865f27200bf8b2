package batch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipca/backend/internal/water"
)

func TestDecodeCSV_DatasetHeaders(t *testing.T) {
	csv := "ph,Hardness,Solids,Chloramines,Sulfate,Conductivity,Organic_carbon,Trihalomethanes,Turbidity\n" +
		"7.1,180,20000,6.5,320,420,14,65,3.8\n"

	inputs, err := DecodeCSV(strings.NewReader(csv), 0)
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	require.NoError(t, inputs[0].Err)

	ph, ok := inputs[0].Record.Value(water.FieldPH)
	require.True(t, ok)
	assert.InDelta(t, 7.1, ph, 1e-9)
	assert.Equal(t, "row-1", inputs[0].Record.ID, "rows without an id column get a positional one")
}

func TestDecodeCSV_IDColumnAndLabelIgnored(t *testing.T) {
	csv := "id,ph,Potability\n" +
		"well-7,6.9,1\n" +
		",7.4,0\n"

	inputs, err := DecodeCSV(strings.NewReader(csv), 0)
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "well-7", inputs[0].Record.ID)
	assert.Equal(t, "row-2", inputs[1].Record.ID)
}

func TestDecodeCSV_BlankCellIsMissing(t *testing.T) {
	csv := "ph,Turbidity\n,3.2\n"

	inputs, err := DecodeCSV(strings.NewReader(csv), 0)
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	require.NoError(t, inputs[0].Err)

	_, ok := inputs[0].Record.Value(water.FieldPH)
	assert.False(t, ok)
	_, ok = inputs[0].Record.Value(water.FieldTurbidity)
	assert.True(t, ok)
}

func TestDecodeCSV_UnknownColumnFailsUpload(t *testing.T) {
	csv := "ph,salinity\n7.0,1.2\n"

	_, err := DecodeCSV(strings.NewReader(csv), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "salinity")
}

func TestDecodeCSV_BadCellFailsOnlyItsRow(t *testing.T) {
	csv := "ph,Turbidity\n7.0,3.1\nabc,2.2\n6.8,4.0\n"

	inputs, err := DecodeCSV(strings.NewReader(csv), 0)
	require.NoError(t, err)
	require.Len(t, inputs, 3)
	assert.NoError(t, inputs[0].Err)
	assert.Error(t, inputs[1].Err)
	assert.NoError(t, inputs[2].Err)
}

func TestDecodeCSV_MaxRows(t *testing.T) {
	csv := "ph\n7.0\n7.1\n7.2\n"

	_, err := DecodeCSV(strings.NewReader(csv), 2)
	assert.Error(t, err)
}

func TestDecodeCSV_NoMeasurementColumns(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader("id\nrow-a\n"), 0)
	assert.Error(t, err)
}
