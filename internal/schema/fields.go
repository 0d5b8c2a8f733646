// Package schema implements the column compatibility layer: it maps the
// loosely named headers of a Superstore-style sales export onto a fixed set of
// logical fields before any row is touched.
//
// Resolution is a pure function of the raw header list and the candidate
// names for each field. Nothing here performs I/O.
package schema

import "sort"

// Field is a canonical, export-independent name for a column's meaning.
type Field string

// The closed set of logical fields understood by the report pipeline.
const (
	OrderID     Field = "order_id"
	OrderDate   Field = "order_date"
	ShipDate    Field = "ship_date"
	Country     Field = "country"
	Region      Field = "region"
	Segment     Field = "segment"
	Category    Field = "category"
	SubCategory Field = "sub_category"
	ProductName Field = "product_name"
	Sales       Field = "sales"
	Quantity    Field = "quantity"
	Discount    Field = "discount"
	Profit      Field = "profit"
)

// FieldSpec pairs a logical field with the raw header spellings accepted for
// it, in priority order. The first candidate present in the input wins.
type FieldSpec struct {
	Field      Field
	Candidates []string
	// Optional fields are left out of the Mapping instead of failing
	// resolution when no candidate matches.
	Optional bool
}

// defaultCandidates is kept in resolution order.
var defaultCandidates = []FieldSpec{
	{Field: OrderID, Candidates: []string{"order id", "order_id"}},
	{Field: OrderDate, Candidates: []string{"order date", "order_date"}},
	{Field: ShipDate, Candidates: []string{"ship date", "ship_date"}},
	{Field: Country, Candidates: []string{"country"}},
	{Field: Region, Candidates: []string{"region"}},
	{Field: Segment, Candidates: []string{"segment"}},
	{Field: Category, Candidates: []string{"category"}},
	{Field: SubCategory, Candidates: []string{"sub-category", "sub_category", "subcategory"}},
	{Field: ProductName, Candidates: []string{"product name", "product_name"}},
	{Field: Sales, Candidates: []string{"sales"}},
	{Field: Quantity, Candidates: []string{"quantity", "qty"}},
	{Field: Discount, Candidates: []string{"discount"}},
	{Field: Profit, Candidates: []string{"profit"}},
}

// DefaultFields returns a fresh copy of the 13 required field specs.
func DefaultFields() []FieldSpec {
	out := make([]FieldSpec, len(defaultCandidates))
	for i, fs := range defaultCandidates {
		out[i] = FieldSpec{
			Field:      fs.Field,
			Candidates: append([]string(nil), fs.Candidates...),
		}
	}
	return out
}

// BuildFields returns DefaultFields with extra candidates appended after the
// built-in ones and the named fields marked optional. Unknown field names in
// either argument are ignored; config validation reports them.
func BuildFields(extra map[string][]string, optional []string) []FieldSpec {
	specs := DefaultFields()
	opt := make(map[Field]bool, len(optional))
	for _, name := range optional {
		opt[Field(name)] = true
	}
	for i := range specs {
		f := specs[i].Field
		if more, ok := extra[string(f)]; ok {
			specs[i].Candidates = append(specs[i].Candidates, more...)
		}
		specs[i].Optional = opt[f]
	}
	return specs
}

// IsKnown reports whether name is one of the logical field identifiers.
func IsKnown(name string) bool {
	for _, fs := range defaultCandidates {
		if string(fs.Field) == name {
			return true
		}
	}
	return false
}

// OptionalAllowed reports whether the pipeline can run without field f.
// Only discount has a defined fallback (avg_discount becomes null).
func OptionalAllowed(f Field) bool { return f == Discount }

// Mapping is the resolved logical schema: logical field -> original raw
// header. It is built once per run and not modified afterwards.
type Mapping map[Field]string

// Column returns the raw header resolved for f.
func (m Mapping) Column(f Field) (string, bool) {
	c, ok := m[f]
	return c, ok
}

// Fields returns the resolved fields sorted by name, for stable logging.
func (m Mapping) Fields() []Field {
	out := make([]Field, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
