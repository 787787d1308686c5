package domain

import "time"

// CorpusDocument is a labelled file found in a warm-up corpus.
type CorpusDocument struct {
	// Path is the absolute file path.
	Path string

	// Filename is the base name.
	Filename string

	// DocumentType is the ground-truth label, taken from the parent directory.
	DocumentType string
}

// WarmupProgress is reported after each batch.
type WarmupProgress struct {
	Discovered int
	Processed  int
	Indexed    int
	Failed     int
}

// Fraction returns completed work in [0, 1].
func (p WarmupProgress) Fraction() float64 {
	if p.Discovered == 0 {
		return 1
	}
	return float64(p.Processed) / float64(p.Discovered)
}

// WarmupOptions override settings for a single run.
type WarmupOptions struct {
	// DataDir overrides the corpus root when set.
	DataDir string

	// ResetIndex deletes the index before populating.
	ResetIndex bool

	// OnProgress is called after every batch. It may be nil.
	OnProgress func(WarmupProgress)
}

// WarmupReport summarises a completed or interrupted warm-up run.
type WarmupReport struct {
	Discovered     int           `json:"discovered"`
	Indexed        int           `json:"indexed"`
	Failed         int           `json:"failed"`
	BatchesFlushed int           `json:"batches_flushed"`
	BatchesFailed  int           `json:"batches_failed"`
	Attempts       int           `json:"ready_attempts"`
	Interrupted    bool          `json:"interrupted"`
	Duration       time.Duration `json:"duration"`
}
