package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"pdcoea/internal/model"
)

const runIndexFile = "run_index.json"

// RunConfig is the parameter half of a run record as written to config.json.
type RunConfig struct {
	RunID          string  `json:"run_id"`
	Game           string  `json:"game"`
	PopulationSize int     `json:"population_size"`
	N              int     `json:"n"`
	Chi            float64 `json:"chi"`
	MaxPayoffEvals int64   `json:"max_payoff_evals"`
	Seed           int64   `json:"seed"`
}

// RunOutcome is written to result.json.
type RunOutcome struct {
	PayoffEvals int64  `json:"payoff_evals"`
	Generations int    `json:"generations"`
	Outcome     string `json:"outcome"`
	ElapsedMS   int64  `json:"elapsed_ms"`
}

type RunIndexEntry struct {
	RunID          string  `json:"run_id"`
	Game           string  `json:"game"`
	PopulationSize int     `json:"population_size"`
	N              int     `json:"n"`
	Chi            float64 `json:"chi"`
	Seed           int64   `json:"seed"`
	PayoffEvals    int64   `json:"payoff_evals"`
	Outcome        string  `json:"outcome"`
	CreatedAtUTC   string  `json:"created_at_utc"`
}

func IndexEntryFromRecord(run model.RunRecord) RunIndexEntry {
	return RunIndexEntry{
		RunID:          run.ID,
		Game:           run.Game,
		PopulationSize: run.PopulationSize,
		N:              run.N,
		Chi:            run.Chi,
		Seed:           run.Seed,
		PayoffEvals:    run.PayoffEvals,
		Outcome:        run.Outcome,
		CreatedAtUTC:   run.CreatedAtUTC,
	}
}

// WriteRunArtifacts writes config.json, result.json and, when the run has a
// trace, generations.csv under baseDir/<run id>.
func WriteRunArtifacts(baseDir string, run model.RunRecord) (string, error) {
	if run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), RunConfig{
		RunID:          run.ID,
		Game:           run.Game,
		PopulationSize: run.PopulationSize,
		N:              run.N,
		Chi:            run.Chi,
		MaxPayoffEvals: run.MaxPayoffEvals,
		Seed:           run.Seed,
	}); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "result.json"), RunOutcome{
		PayoffEvals: run.PayoffEvals,
		Generations: run.Generations,
		Outcome:     run.Outcome,
		ElapsedMS:   run.ElapsedMS,
	}); err != nil {
		return "", err
	}
	if len(run.Trace) > 0 {
		if err := WriteGenerationStats(runDir, run.Trace); err != nil {
			return "", err
		}
	}
	return runDir, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(baseDir, runID, "config.json"), &cfg)
	return cfg, ok, err
}

func ReadRunOutcome(baseDir, runID string) (RunOutcome, bool, error) {
	var outcome RunOutcome
	ok, err := readJSON(filepath.Join(baseDir, runID, "result.json"), &outcome)
	return outcome, ok, err
}

var generationStatsHeader = []string{
	"generation",
	"payoff_evals",
	"predator_max_ones",
	"predator_mean_ones",
	"prey_max_ones",
	"prey_mean_ones",
}

func WriteGenerationStats(runDir string, trace []model.GenerationStats) error {
	file, err := os.Create(filepath.Join(runDir, "generations.csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(generationStatsHeader); err != nil {
		return err
	}
	for _, s := range trace {
		if err := writer.Write([]string{
			strconv.Itoa(s.Generation),
			strconv.FormatInt(s.PayoffEvals, 10),
			strconv.Itoa(s.PredatorMaxOnes),
			strconv.FormatFloat(s.PredatorMeanOnes, 'f', -1, 64),
			strconv.Itoa(s.PreyMaxOnes),
			strconv.FormatFloat(s.PreyMeanOnes, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadGenerationStats(baseDir, runID string) ([]model.GenerationStats, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, "generations.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(generationStatsHeader)
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return []model.GenerationStats{}, true, nil
		}
		return nil, false, err
	}

	var trace []model.GenerationStats
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		s, err := parseGenerationStats(record)
		if err != nil {
			return nil, false, err
		}
		trace = append(trace, s)
	}
	return trace, true, nil
}

func parseGenerationStats(record []string) (model.GenerationStats, error) {
	var (
		s   model.GenerationStats
		err error
	)
	if s.Generation, err = strconv.Atoi(record[0]); err != nil {
		return s, err
	}
	if s.PayoffEvals, err = strconv.ParseInt(record[1], 10, 64); err != nil {
		return s, err
	}
	if s.PredatorMaxOnes, err = strconv.Atoi(record[2]); err != nil {
		return s, err
	}
	if s.PredatorMeanOnes, err = strconv.ParseFloat(record[3], 64); err != nil {
		return s, err
	}
	if s.PreyMaxOnes, err = strconv.Atoi(record[4]); err != nil {
		return s, err
	}
	if s.PreyMeanOnes, err = strconv.ParseFloat(record[5], 64); err != nil {
		return s, err
	}
	return s, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := readRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns the index newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	entries, err := readRunIndex(baseDir)
	if err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func readRunIndex(baseDir string) ([]RunIndexEntry, error) {
	entries := []RunIndexEntry{}
	if _, err := readJSON(filepath.Join(baseDir, runIndexFile), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// WriteSweepArtifacts writes sweep.json, heatmap.csv and heatmap.png under
// baseDir/<sweep id>.
func WriteSweepArtifacts(baseDir string, sweep model.SweepRecord) (string, error) {
	if sweep.ID == "" {
		return "", fmt.Errorf("sweep id is required")
	}

	sweepDir := filepath.Join(baseDir, sweep.ID)
	if err := os.MkdirAll(sweepDir, 0o755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(sweepDir, "sweep.json"), sweep); err != nil {
		return "", err
	}
	if err := writeHeatmapCSV(filepath.Join(sweepDir, "heatmap.csv"), sweep); err != nil {
		return "", err
	}

	file, err := os.Create(filepath.Join(sweepDir, "heatmap.png"))
	if err != nil {
		return "", err
	}
	defer file.Close()
	if err := RenderHeatmapPNG(file, sweep); err != nil {
		return "", err
	}
	return sweepDir, file.Sync()
}

func writeHeatmapCSV(path string, sweep model.SweepRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := []string{"population_size"}
	for _, chi := range sweep.Chis {
		header = append(header, "chi="+strconv.FormatFloat(chi, 'f', -1, 64))
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	means := HeatmapMeans(sweep)
	for i, size := range sweep.PopulationSizes {
		row := []string{strconv.Itoa(size)}
		for _, v := range means[i] {
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// HeatmapMeans arranges the cell means of sweep as [row][col].
func HeatmapMeans(sweep model.SweepRecord) [][]float64 {
	means := make([][]float64, len(sweep.PopulationSizes))
	for i := range means {
		means[i] = make([]float64, len(sweep.Chis))
	}
	for _, cell := range sweep.Cells {
		if cell.Row < len(means) && cell.Col < len(sweep.Chis) {
			means[cell.Row][cell.Col] = cell.MeanPayoffEvals
		}
	}
	return means
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}
