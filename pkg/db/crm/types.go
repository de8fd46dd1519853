package crm

// Read models of the CRM entities referenced by workflow templates.
// IDs are the CRM's own string identifiers, not ObjectIDs, since this
// subsystem only looks entities up by the IDs events carry.

type Patient struct {
	ID        string `bson:"_id" json:"id"`
	FirstName string `bson:"firstName" json:"firstName"`
	LastName  string `bson:"lastName" json:"lastName"`
	Email     string `bson:"email" json:"email"`
	Phone     string `bson:"phone" json:"phone"`
}

type Deal struct {
	ID        string `bson:"_id" json:"id"`
	Title     string `bson:"title" json:"title"`
	Pipeline  string `bson:"pipeline" json:"pipeline"`
	Notes     string `bson:"notes" json:"notes"`
	PatientID string `bson:"patientId" json:"patientId"`
	StageID   string `bson:"stageId" json:"stageId"`
}

type Stage struct {
	ID   string `bson:"_id" json:"id"`
	Name string `bson:"name" json:"name"`
	Type string `bson:"type" json:"type"`
}
