package engine

// Checkpointer captures enough state to undo everything that happens
// after Checkpoint returns. Calling restore reverts to the captured state.
type Checkpointer interface {
	Checkpoint() (restore func())
}

// runAtomically runs fn against checkpoints of every participant and restores them,
// newest first, when fn fails.
func runAtomically(participants []Checkpointer, fn func() error) error {
	restores := make([]func(), 0, len(participants))
	for _, p := range participants {
		if p == nil {
			continue
		}
		restores = append(restores, p.Checkpoint())
	}
	if err := fn(); err != nil {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
		return err
	}
	return nil
}
