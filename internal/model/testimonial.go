package model

type Testimonial struct {
	Base
	AuthorName string `db:"author_name" json:"author_name"`
	Content    string `db:"content" json:"content"`
	Rating     int    `db:"rating" json:"rating"`
	Approved   bool   `db:"approved" json:"approved"`
	Featured   bool   `db:"featured" json:"featured"`
}

type CreateTestimonialRequest struct {
	AuthorName string `json:"author_name" binding:"required,max=100"`
	Content    string `json:"content" binding:"required,max=2000"`
	Rating     int    `json:"rating" binding:"required,min=1,max=5"`
}

type ModerateTestimonialRequest struct {
	Approved *bool `json:"approved"`
	Featured *bool `json:"featured"`
}
