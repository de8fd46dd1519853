package templates

// TemplateVariable is one documented token the authoring UI can offer
// for insertion. The renderer accepts any syntactically valid path and
// resolves unknown ones to empty, the catalog is a UI convenience only.
type TemplateVariable struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

func TemplateVariableCatalog() []TemplateVariable {
	return []TemplateVariable{
		{Path: "patient.id", Label: "Patient ID"},
		{Path: "patient.first_name", Label: "Patient first name"},
		{Path: "patient.last_name", Label: "Patient last name"},
		{Path: "patient.email", Label: "Patient email"},
		{Path: "patient.phone", Label: "Patient phone"},
		{Path: "deal.id", Label: "Deal ID"},
		{Path: "deal.title", Label: "Deal title"},
		{Path: "deal.pipeline", Label: "Deal pipeline"},
		{Path: "deal.notes", Label: "Deal notes"},
		{Path: "from_stage.id", Label: "Origin stage ID"},
		{Path: "from_stage.name", Label: "Origin stage name"},
		{Path: "from_stage.type", Label: "Origin stage type"},
		{Path: "to_stage.id", Label: "Target stage ID"},
		{Path: "to_stage.name", Label: "Target stage name"},
		{Path: "to_stage.type", Label: "Target stage type"},
	}
}
