package coea

import "pdcoea/internal/model"

// Snapshot is the per-generation view handed to observers. The slices are
// freshly allocated for every snapshot and may be retained.
type Snapshot struct {
	Generation   int
	PayoffEvals  int64
	N            int
	PredatorOnes []int
	PreyOnes     []int
}

// Observer receives a snapshot after every executed generation. It runs on
// the engine goroutine, so implementations must return promptly.
type Observer interface {
	ObserveGeneration(Snapshot)
}

type ObserverFunc func(Snapshot)

func (f ObserverFunc) ObserveGeneration(s Snapshot) {
	f(s)
}

type MultiObserver []Observer

func (m MultiObserver) ObserveGeneration(s Snapshot) {
	for _, o := range m {
		if o != nil {
			o.ObserveGeneration(s)
		}
	}
}

type GenerationTrace struct {
	Stats []model.GenerationStats
}

func (t *GenerationTrace) ObserveGeneration(s Snapshot) {
	predMax, predMean := summarizeOnes(s.PredatorOnes)
	preyMax, preyMean := summarizeOnes(s.PreyOnes)
	t.Stats = append(t.Stats, model.GenerationStats{
		Generation:       s.Generation,
		PayoffEvals:      s.PayoffEvals,
		PredatorMaxOnes:  predMax,
		PredatorMeanOnes: predMean,
		PreyMaxOnes:      preyMax,
		PreyMeanOnes:     preyMean,
	})
}

func summarizeOnes(counts []int) (maxOnes int, mean float64) {
	if len(counts) == 0 {
		return 0, 0
	}
	total := 0
	for _, c := range counts {
		total += c
		if c > maxOnes {
			maxOnes = c
		}
	}
	return maxOnes, float64(total) / float64(len(counts))
}
