package water

// Verdict is the classifier's decision for one record. Probability is the
// model's estimate that the sample is potable; Confidence is the probability
// assigned to the predicted class. The source record rides along so
// downstream policy checks can read raw field values (pH in particular).
type Verdict struct {
	RecordID    string  `json:"record_id"`
	Record      Record  `json:"-"`
	Potable     bool    `json:"potable"`
	Probability float64 `json:"probability"`
	Confidence  float64 `json:"confidence"`
}
