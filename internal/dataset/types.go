package dataset

// Record is one measured subject as read from the source file. Created once
// at load time; immutable thereafter.
type Record struct {
	Subject     string
	Fat         float64
	BoneMineral float64
	Lean        float64
	Age         float64
	Height      float64
	Weight      float64
	Sex         string
	Inclusion   string
}

// DerivedRecord is a Record narrowed to the presentation attributes plus the
// computed lean body mass percentage. The three raw body-composition
// components are discarded here. 1:1 with Record.
type DerivedRecord struct {
	Subject     string
	Age         float64
	Height      float64
	Weight      float64
	LeanBodyPct float64
	Sex         string
	Inclusion   string
}

// Table holds the loaded dataset. Each pipeline stage owns its output table
// exclusively until handing it to the next stage.
type Table struct {
	Records []Record
}

// Canonical column names for the raw dataset schema.
const (
	ColSubject     = "subject"
	ColFat         = "fat"
	ColBoneMineral = "bone_mineral"
	ColLean        = "lean"
	ColAge         = "age"
	ColHeight      = "height"
	ColWeight      = "weight"
	ColSex         = "sex"
	ColInclusion   = "inclusion"
)

// RequiredColumns lists every column the loader must find in the header row.
var RequiredColumns = []string{
	ColSubject, ColFat, ColBoneMineral, ColLean,
	ColAge, ColHeight, ColWeight, ColSex, ColInclusion,
}

// VarAge and friends name the numeric variables the aggregator can summarize
// on a DerivedRecord.
const (
	VarAge     = "age"
	VarHeight  = "height"
	VarWeight  = "weight"
	VarLeanPct = "lbm_pct"
)

// Value returns the named numeric variable from the record. The second
// return is false for unknown variable names.
func (r DerivedRecord) Value(variable string) (float64, bool) {
	switch variable {
	case VarAge:
		return r.Age, true
	case VarHeight:
		return r.Height, true
	case VarWeight:
		return r.Weight, true
	case VarLeanPct:
		return r.LeanBodyPct, true
	default:
		return 0, false
	}
}
