package domain

// Roles carried in access tokens.
const (
	RoleAdmin   = "admin"
	RoleCarrier = "carrier"
	RoleViewer  = "viewer"
)
