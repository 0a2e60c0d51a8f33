package dto

// ConflictCheckResult 冲突检查结果
// 一次检查尽量收集全部违规原因，而非遇错即停
type ConflictCheckResult struct {
	Valid     bool     `json:"valid"`
	Conflicts []string `json:"conflicts,omitempty"`
}
