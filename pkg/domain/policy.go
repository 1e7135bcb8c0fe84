package domain

// CandidateFacts describes a predicted candidate to policy rules.
type CandidateFacts struct {
	Prob            float64 `expr:"prob"`
	ModeProb        float64 `expr:"mode_prob"`
	Depth           int     `expr:"depth"`
	EgoLaneDistance float64 `expr:"ego_lane_distance"`
	EgoSigma        float64 `expr:"ego_sigma"`
	EgoSpeed        float64 `expr:"ego_speed"`
}

// PruneRule decides whether a candidate must be discarded.
type PruneRule interface {
	Name() string
	Prune(CandidateFacts) (bool, error)
}
