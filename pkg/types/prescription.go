package types

// Prescription attaches optical measurements to a line item. It never
// participates in pricing. Manual mode carries per-eye measurement values;
// upload mode carries a reference to a stored prescription file.
type Prescription struct {
	Mode      string             `json:"mode,omitempty"`
	UploadRef string             `json:"upload_ref,omitempty"`
	Values    map[string]float64 `json:"values,omitempty"`
	Notes     string             `json:"notes,omitempty"`
}
