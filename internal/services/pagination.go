package services

import "forum/internal/utils"

// DefaultMaxPageSize 未配置时的单页上限
const DefaultMaxPageSize = 100

// validatePage 页码从 1 开始，每页条数在 (0, maxPageSize] 内
func validatePage(page, pageSize, maxPageSize int) error {
	if maxPageSize <= 0 {
		maxPageSize = DefaultMaxPageSize
	}
	if page < 1 {
		return utils.NewValidationError("页码必须大于等于1")
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		return utils.NewValidationError("每页条数必须在1到%d之间", maxPageSize)
	}
	return nil
}
