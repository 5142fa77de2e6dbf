package points

type CreatePointRequest struct {
	Kind    Kind   `json:"kind" binding:"required,oneof=boarding dropping"`
	Name    string `json:"name" binding:"required,min=2,max=120"`
	Time    string `json:"time" binding:"required,hhmm"`
	Address string `json:"address" binding:"omitempty,max=500"`
}

type UpdatePointRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=2,max=120"`
	Time    *string `json:"time" binding:"omitempty,hhmm"`
	Address *string `json:"address" binding:"omitempty,max=500"`
}
