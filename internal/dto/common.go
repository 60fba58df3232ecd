package dto

// ── 通用分页参数 ──

// PageRequest 分页查询参数
type PageRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 页码（默认 1）
func (r *PageRequest) GetPage() int {
	if r.Page <= 0 {
		return 1
	}
	return r.Page
}

// GetPageSize 每页条数（默认 20）
func (r *PageRequest) GetPageSize() int {
	if r.PageSize <= 0 {
		return 20
	}
	return r.PageSize
}

// GetOffset 偏移量
func (r *PageRequest) GetOffset() int {
	return (r.GetPage() - 1) * r.GetPageSize()
}
