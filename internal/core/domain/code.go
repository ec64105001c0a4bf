package domain

// InitialCode is an atomic concept extracted from a single source. Immutable
// after creation; clustering redistributes codes between themes but never
// copies or drops them.
type InitialCode struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	SourceID  string `json:"source_id"`
	Embedding Vector `json:"-"`
	RawText   string `json:"raw_text,omitempty"`
}

// CodeRange is the per-source code-count target. Broad purposes request more
// codes so clustering has enough raw material to reach their theme floor.
type CodeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}
