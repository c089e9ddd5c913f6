package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord is the persisted outcome of one engine run.
type RunRecord struct {
	VersionedRecord
	ID             string            `json:"id"`
	Game           string            `json:"game"`
	PopulationSize int               `json:"population_size"`
	N              int               `json:"n"`
	Chi            float64           `json:"chi"`
	MaxPayoffEvals int64             `json:"max_payoff_evals"`
	Seed           int64             `json:"seed"`
	PayoffEvals    int64             `json:"payoff_evals"`
	Generations    int               `json:"generations"`
	Outcome        string            `json:"outcome"`
	ElapsedMS      int64             `json:"elapsed_ms"`
	CreatedAtUTC   string            `json:"created_at_utc"`
	Trace          []GenerationStats `json:"trace,omitempty"`
}

// GenerationStats summarises both populations after one generation.
type GenerationStats struct {
	Generation       int     `json:"generation"`
	PayoffEvals      int64   `json:"payoff_evals"`
	PredatorMaxOnes  int     `json:"predator_max_ones"`
	PredatorMeanOnes float64 `json:"predator_mean_ones"`
	PreyMaxOnes      int     `json:"prey_max_ones"`
	PreyMeanOnes     float64 `json:"prey_mean_ones"`
}

// SweepRecord is the persisted result of a (population size, chi) grid.
type SweepRecord struct {
	VersionedRecord
	ID              string      `json:"id"`
	Game            string      `json:"game"`
	N               int         `json:"n"`
	PopulationSizes []int       `json:"population_sizes"`
	Chis            []float64   `json:"chis"`
	Trials          int         `json:"trials"`
	MaxPayoffEvals  int64       `json:"max_payoff_evals"`
	Seed            int64       `json:"seed"`
	Cells           []SweepCell `json:"cells"`
	CreatedAtUTC    string      `json:"created_at_utc"`
}

// SweepCell holds the trials of one grid cell.
type SweepCell struct {
	Row              int     `json:"row"`
	Col              int     `json:"col"`
	PopulationSize   int     `json:"population_size"`
	Chi              float64 `json:"chi"`
	MeanPayoffEvals  float64 `json:"mean_payoff_evals"`
	TrialPayoffEvals []int64 `json:"trial_payoff_evals"`
	Terminated       int     `json:"terminated"`
}
