package models

import "time"

// AdminCredentials is the durable "admin" record: the tokens the console uses against the backend.
// Field names follow the backend's login response.
type AdminCredentials struct {
	Username       string            `bson:"username" json:"username"`
	AccessToken    string            `bson:"accessToken" json:"AccessToken"`
	RefreshToken   string            `bson:"refreshToken" json:"RefreshToken"`
	UserAttributes map[string]string `bson:"userAttributes,omitempty" json:"userAttributes,omitempty"`
	UpdatedAt      time.Time         `bson:"updatedAt" json:"updatedAt"`
}
