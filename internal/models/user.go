package models

// User roles.
const (
	RoleShipper = "shipper"
	RoleCarrier = "carrier"
	RoleAdmin   = "admin"
)

// User struct matches the document in MongoDB
type User struct {
	Email        string `bson:"_id" json:"email"`
	Name         string `bson:"name" json:"name"`
	PasswordHash string `bson:"password" json:"-"`
	Role         string `bson:"role" json:"role"`
	Status       string `bson:"status" json:"status"`
}
