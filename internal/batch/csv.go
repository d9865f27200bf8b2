package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sipca/backend/internal/water"
)

// headerAliases maps normalized CSV header names to record fields. The
// upstream dataset ships headers like "ph", "Hardness", "Organic_carbon";
// matching is case-insensitive with spaces treated as underscores.
var headerAliases = map[string]water.Field{
	"ph":              water.FieldPH,
	"hardness":        water.FieldHardness,
	"solids":          water.FieldSolids,
	"chloramines":     water.FieldChloramines,
	"sulfate":         water.FieldSulfate,
	"conductivity":    water.FieldConductivity,
	"organic_carbon":  water.FieldOrganicCarbon,
	"trihalomethanes": water.FieldTrihalomethanes,
	"turbidity":       water.FieldTurbidity,
}

// DecodeCSV reads an uploaded measurement table into runner inputs. The
// header row is required; unknown columns fail the whole upload (the file
// does not match the expected shape), while bad cells fail only their row.
// Blank cells are missing readings and are left for imputation.
func DecodeCSV(r io.Reader, maxRows int) ([]Input, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	fields := make([]water.Field, len(header))
	hasID := -1
	known := 0
	for i, name := range header {
		norm := normalizeHeader(name)
		if norm == "id" || norm == "record_id" {
			hasID = i
			continue
		}
		if norm == "potability" {
			// Label column from the training dataset; ignore it on uploads.
			continue
		}
		f, ok := headerAliases[norm]
		if !ok {
			return nil, fmt.Errorf("unrecognized CSV column %q", name)
		}
		fields[i] = f
		known++
	}
	if known == 0 {
		return nil, fmt.Errorf("CSV has no measurement columns")
	}

	var inputs []Input
	row := 0
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A structurally broken line fails its slot, not the batch.
			inputs = append(inputs, Input{Err: fmt.Errorf("row %d: %w", row+1, err)})
			row++
			continue
		}

		if maxRows > 0 && len(inputs) >= maxRows {
			return nil, fmt.Errorf("CSV exceeds maximum of %d rows", maxRows)
		}

		in := Input{}
		in.Record.ID = fmt.Sprintf("row-%d", row+1)
		for i, cell := range cells {
			if i >= len(header) {
				break
			}
			if i == hasID {
				if v := strings.TrimSpace(cell); v != "" {
					in.Record.ID = v
				}
				continue
			}
			f := fields[i]
			if f == "" {
				continue
			}
			v := strings.TrimSpace(cell)
			if v == "" {
				continue
			}
			num, err := strconv.ParseFloat(v, 64)
			if err != nil {
				in.Err = fmt.Errorf("row %d: column %q is not numeric: %q", row+1, header[i], cell)
				break
			}
			in.Record.Set(f, num)
		}

		inputs = append(inputs, in)
		row++
	}

	return inputs, nil
}

func normalizeHeader(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return name
}
