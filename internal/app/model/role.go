package model

type UserRole string // role claim carried by access tokens

const (
	RoleAdmin     UserRole = "admin"     // certification authority staff
	RoleInspector UserRole = "inspector" // field inspector
	RoleSystem    UserRole = "system"    // approval workflow service account
)
