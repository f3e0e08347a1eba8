package recognition

// Label identifies a style. Labels are opaque and compared for equality only.
type Label string

// Embedding is the fixed-length vector representing one clip
type Embedding []float64

// LabelledExample pairs an embedding with its label
type LabelledExample struct {
	Label     Label     `json:"label"`
	Embedding Embedding `json:"embedding"`
}

// Result describes the winning reference example of a prediction
type Result struct {
	Label    Label   `json:"label"`
	Distance float64 `json:"distance"`
	Index    int     `json:"index"` // insertion position in the reference set
}
