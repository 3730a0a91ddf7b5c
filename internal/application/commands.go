package application

type BatchOperation string

const (
	BatchSave   BatchOperation = "save"
	BatchDelete BatchOperation = "delete"
)

func (op BatchOperation) Valid() bool {
	switch op {
	case BatchSave, BatchDelete:
		return true
	default:
		return false
	}
}

type RunBatchCommand struct {
	Operation BatchOperation
	// DryRun validates a save batch locally without contacting the backend
	// or writing results back.
	DryRun bool
}
