package dto

type CreateKeywordRequest struct {
	Word         string `json:"word" example:"pricing"`
	TalkingPoint string `json:"talking_point,omitempty" example:"Lead with the annual plan discount"`
	IsActive     *bool  `json:"is_active,omitempty" example:"true"`
}

type KeywordResponse struct {
	ID           int    `json:"id" example:"42"`
	Word         string `json:"word" example:"pricing"`
	TalkingPoint string `json:"talking_point,omitempty" example:"Lead with the annual plan discount"`
	IsActive     bool   `json:"is_active" example:"true"`
}

type KeywordListResponse struct {
	Keywords []KeywordResponse `json:"keywords"`
}
