package request

type CreateBookRequest struct {
	ISBN        string `json:"isbn" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Author      string `json:"author" binding:"required"`
	TotalCopies int32  `json:"total_copies" binding:"required,gt=0"`
}

type UpdateBookRequest struct {
	Title  *string `json:"title,omitempty"`
	Author *string `json:"author,omitempty"`
}

type AdjustCopiesRequest struct {
	TotalCopies int32 `json:"total_copies" binding:"required,gt=0"`
}
