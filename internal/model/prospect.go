package model

// ProspectRecord is one row of generated lead output. Thirteen fixed fields;
// DecisionMaker carries only the first name plus a masked last name
// ("Jane *****") — the full name never leaves the generation layer.
type ProspectRecord struct {
	Company          string `json:"company"`
	Website          string `json:"website"`
	Industry         string `json:"industry"`
	SubIndustry      string `json:"sub_industry"`
	ProductLine      string `json:"product_line"`
	UseCase          string `json:"use_case"`
	Employees        string `json:"employees"`
	Revenue          string `json:"revenue"`
	Location         string `json:"location"`
	DecisionMaker    string `json:"decision_maker"`
	Designation      string `json:"designation"`
	PainPoints       string `json:"pain_points"`
	ApproachStrategy string `json:"approach_strategy"`
}

// ProspectColumns is the ordered header for grid and export rendering.
// DecisionMaker is deliberately the 10th column; the masking sanitizer
// scans that position.
var ProspectColumns = []string{
	"Company",
	"Website",
	"Industry",
	"Sub-Industry",
	"Product Line",
	"Use Case",
	"Employees",
	"Revenue",
	"Location",
	"Decision Maker",
	"Designation",
	"Pain Points",
	"Approach Strategy",
}

// Row returns the record's values in ProspectColumns order.
func (p ProspectRecord) Row() []string {
	return []string{
		p.Company,
		p.Website,
		p.Industry,
		p.SubIndustry,
		p.ProductLine,
		p.UseCase,
		p.Employees,
		p.Revenue,
		p.Location,
		p.DecisionMaker,
		p.Designation,
		p.PainPoints,
		p.ApproachStrategy,
	}
}
