package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Username        string             `bson:"username" json:"username"`
	Email           string             `bson:"email" json:"email"`
	Password        string             `bson:"password" json:"-"`
	Role            string             `bson:"role" json:"role"`
	Phone           string             `bson:"phone,omitempty" json:"phone,omitempty"`
	AvatarURL       string             `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress,omitempty" json:"shippingAddress,omitempty"`
	OrdersCount     int                `bson:"ordersCount" json:"ordersCount"`
	TotalSpent      float64            `bson:"totalSpent" json:"totalSpent"`
	IsVerified      bool               `bson:"isVerified" json:"isVerified"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
