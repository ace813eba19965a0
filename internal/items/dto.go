package items

type CreateItemRequest struct {
	Name  string  `json:"name" validate:"required,max=200"`
	Price float64 `json:"price" validate:"required,gte=0"`
}

type UpdateItemRequest struct {
	ID    int64   `json:"id" validate:"required,gt=0"`
	Name  string  `json:"name" validate:"required,max=200"`
	Price float64 `json:"price" validate:"required,gte=0"`
}
