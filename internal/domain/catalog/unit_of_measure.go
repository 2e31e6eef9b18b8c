package catalog

// UnitOfMeasure is a packaging or dosing unit.
type UnitOfMeasure string

const (
	UOMBox        UnitOfMeasure = "BOX"
	UOMVial       UnitOfMeasure = "VIAL"
	UOMCarton     UnitOfMeasure = "CARTON"
	UOMUnit       UnitOfMeasure = "UNIT"
	UOMMilliliter UnitOfMeasure = "ML"
	UOMMilligram  UnitOfMeasure = "MG"
	UOMGram       UnitOfMeasure = "G"
	UOMKilogram   UnitOfMeasure = "KG"
	UOMLiter      UnitOfMeasure = "L"
	UOMTablet     UnitOfMeasure = "TABLET"
	UOMCapsule    UnitOfMeasure = "CAPSULE"
	UOMBottle     UnitOfMeasure = "BOTTLE"
	UOMPack       UnitOfMeasure = "PACK"
	UOMCase       UnitOfMeasure = "CASE"
	UOMEach       UnitOfMeasure = "EA"
	UOMDose       UnitOfMeasure = "DOSE"
	UOMAmpule     UnitOfMeasure = "AMPULE"
	UOMPrefilled  UnitOfMeasure = "PREFILLED"
	UOMKit        UnitOfMeasure = "KIT"
)

// unitLabels keeps display order.
var unitLabels = []struct {
	unit  UnitOfMeasure
	label string
}{
	{UOMBox, "Box(es)"},
	{UOMVial, "Vial(s)"},
	{UOMCarton, "Carton(s)"},
	{UOMUnit, "Unit(s)"},
	{UOMMilliliter, "Milliliter(s)"},
	{UOMMilligram, "Milligram(s)"},
	{UOMGram, "Gram(s)"},
	{UOMKilogram, "Kilogram(s)"},
	{UOMLiter, "Liter(s)"},
	{UOMTablet, "Tablet(s)"},
	{UOMCapsule, "Capsule(s)"},
	{UOMBottle, "Bottle(s)"},
	{UOMPack, "Pack(s)"},
	{UOMCase, "Case(s)"},
	{UOMEach, "Each"},
	{UOMDose, "Dose(s)"},
	{UOMAmpule, "Ampule(s)"},
	{UOMPrefilled, "Prefilled Syringe(s)"},
	{UOMKit, "Kit(s)"},
}

// UnitOption is a unit with its display label.
type UnitOption struct {
	Value UnitOfMeasure `json:"value"`
	Label string        `json:"label"`
}

// UnitOptions lists every unit in display order.
func UnitOptions() []UnitOption {
	opts := make([]UnitOption, 0, len(unitLabels))
	for _, u := range unitLabels {
		opts = append(opts, UnitOption{Value: u.unit, Label: u.label})
	}
	return opts
}

// IsValid reports whether u is a known unit.
func (u UnitOfMeasure) IsValid() bool {
	for _, l := range unitLabels {
		if l.unit == u {
			return true
		}
	}
	return false
}

// Label returns the display label, or the raw value for unknown units.
func (u UnitOfMeasure) Label() string {
	for _, l := range unitLabels {
		if l.unit == u {
			return l.label
		}
	}
	return string(u)
}
