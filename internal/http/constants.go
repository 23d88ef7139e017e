package http

const (
	KeyHeaderContentType       = "Content-Type"
	KeyHeaderRequestID         = "X-Request-Id"
	KeyHeaderAuthorization     = "Authorization"
	KeyHeaderSessionToken      = "X-Session-Token"
	ValueHeaderApplicationJSON = "application/json"
)
