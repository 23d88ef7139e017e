package constants

const (
	AppStorefront      = "storefront"
	AppMainSneakerZone = "sneakerzone"
	AudienceStorefront = "audience-storefront"
)

const (
	RoleAdmin    = "Admin"
	RoleEmployee = "Empleado"
	RoleUser     = "Usuario"
)
