package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"size:20;unique;not null"  json:"username"`
	Email        string    `gorm:"size:200;unique;not null" json:"email"`
	PasswordHash string    `gorm:"size:100;not null"        json:"-"`
	IsVerified   bool      `gorm:"default:false"            json:"is_verified"`
	JoinDate     time.Time `gorm:"autoCreateTime"           json:"join_date"`
}

type Business struct {
	ID                  uint   `gorm:"primaryKey;autoIncrement"               json:"id"`
	BusinessName        string `gorm:"size:20;unique;not null"                json:"business_name"`
	City                string `gorm:"size:100;not null;default:Unspecified"  json:"city"`
	Region              string `gorm:"size:100;not null;default:Unspecified"  json:"region"`
	BusinessDescription string `json:"business_description"`
	Logo                string `gorm:"size:200;not null;default:default.jpg"  json:"logo"`
	OwnerID             uint   `gorm:"index;not null"                         json:"owner_id"`
	Owner               User   `gorm:"foreignKey:OwnerID"                     json:"-"`
}

type Product struct {
	ID                  uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                string    `gorm:"size:100;unique;not null" json:"name"`
	Category            string    `gorm:"size:30;index"            json:"category"`
	OriginalPrice       float64   `json:"original_price"`
	NewPrice            float64   `json:"new_price"`
	PercentageDiscount  int       `json:"percentage_discount"`
	OfferExpirationDate time.Time `json:"offer_expiration_date"`
	ProductImage        string    `gorm:"size:200;not null;default:productDefault.jpg" json:"product_image"`
	BusinessID          uint      `gorm:"index;not null"           json:"business_id"`
	Business            Business  `gorm:"foreignKey:BusinessID"    json:"-"`
}
