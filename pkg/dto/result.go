package dto

// ActionResult is the body of every mutating action. Exactly one of Success
// and Error is set.
type ActionResult struct {
	Success string `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

func Success(msg string) ActionResult {
	return ActionResult{Success: msg}
}

func Failure(msg string) ActionResult {
	return ActionResult{Error: msg}
}

func (r ActionResult) OK() bool {
	return r.Error == ""
}
