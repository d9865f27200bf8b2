package water

// Field names the nine physico-chemical measurements a sample carries.
type Field string

const (
	FieldPH              Field = "ph"
	FieldHardness        Field = "hardness"
	FieldSolids          Field = "solids"
	FieldChloramines     Field = "chloramines"
	FieldSulfate         Field = "sulfate"
	FieldConductivity    Field = "conductivity"
	FieldOrganicCarbon   Field = "organic_carbon"
	FieldTrihalomethanes Field = "trihalomethanes"
	FieldTurbidity       Field = "turbidity"
)

// Fields is the canonical field list, in the order the classifier was
// trained on.
var Fields = []Field{
	FieldPH,
	FieldHardness,
	FieldSolids,
	FieldChloramines,
	FieldSulfate,
	FieldConductivity,
	FieldOrganicCarbon,
	FieldTrihalomethanes,
	FieldTurbidity,
}

// Record is a single raw sample. A nil field is a missing sensor reading;
// records are treated as immutable once captured.
type Record struct {
	ID              string   `json:"id,omitempty"`
	PH              *float64 `json:"ph,omitempty"`
	Hardness        *float64 `json:"hardness,omitempty"`
	Solids          *float64 `json:"solids,omitempty"`
	Chloramines     *float64 `json:"chloramines,omitempty"`
	Sulfate         *float64 `json:"sulfate,omitempty"`
	Conductivity    *float64 `json:"conductivity,omitempty"`
	OrganicCarbon   *float64 `json:"organic_carbon,omitempty"`
	Trihalomethanes *float64 `json:"trihalomethanes,omitempty"`
	Turbidity       *float64 `json:"turbidity,omitempty"`
}

// Value returns the reading for a field and whether it is present.
func (r Record) Value(f Field) (float64, bool) {
	var p *float64
	switch f {
	case FieldPH:
		p = r.PH
	case FieldHardness:
		p = r.Hardness
	case FieldSolids:
		p = r.Solids
	case FieldChloramines:
		p = r.Chloramines
	case FieldSulfate:
		p = r.Sulfate
	case FieldConductivity:
		p = r.Conductivity
	case FieldOrganicCarbon:
		p = r.OrganicCarbon
	case FieldTrihalomethanes:
		p = r.Trihalomethanes
	case FieldTurbidity:
		p = r.Turbidity
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Set stores a reading for a field. It exists for decoders building a record
// field by field; callers treat completed records as immutable.
func (r *Record) Set(f Field, v float64) {
	val := v
	switch f {
	case FieldPH:
		r.PH = &val
	case FieldHardness:
		r.Hardness = &val
	case FieldSolids:
		r.Solids = &val
	case FieldChloramines:
		r.Chloramines = &val
	case FieldSulfate:
		r.Sulfate = &val
	case FieldConductivity:
		r.Conductivity = &val
	case FieldOrganicCarbon:
		r.OrganicCarbon = &val
	case FieldTrihalomethanes:
		r.Trihalomethanes = &val
	case FieldTurbidity:
		r.Turbidity = &val
	}
}
