package model

import (
	"github.com/lib/pq"
)

// Service is a bookable treatment type.
type Service struct {
	Base
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Benefits    pq.StringArray `db:"benefits" json:"benefits"`
	Duration    int            `db:"duration" json:"duration"` // in minutes
	Price       float64        `db:"price" json:"price"`
	Category    string         `db:"category" json:"category"`
	Active      bool           `db:"active" json:"active"`
	ShowPrice   bool           `db:"show_price" json:"show_price"`
}

type CreateServiceRequest struct {
	Title       string   `json:"title" binding:"required,max=150"`
	Description string   `json:"description" binding:"max=2000"`
	Benefits    []string `json:"benefits"`
	Duration    int      `json:"duration" binding:"required,gt=0"`
	Price       float64  `json:"price" binding:"gte=0"`
	Category    string   `json:"category" binding:"max=100"`
	ShowPrice   *bool    `json:"show_price"`
}

type UpdateServiceRequest struct {
	Title       *string  `json:"title" binding:"omitempty,max=150"`
	Description *string  `json:"description" binding:"omitempty,max=2000"`
	Benefits    []string `json:"benefits"`
	Duration    *int     `json:"duration" binding:"omitempty,gt=0"`
	Price       *float64 `json:"price" binding:"omitempty,gte=0"`
	Category    *string  `json:"category" binding:"omitempty,max=100"`
	Active      *bool    `json:"active"`
	ShowPrice   *bool    `json:"show_price"`
}
