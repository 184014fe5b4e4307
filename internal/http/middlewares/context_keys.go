package middlewares

const (
	ctxUserIDKey     = "auth.userID"
	ctxEmailKey      = "auth.email"
	ctxDeviceTypeKey = "auth.deviceType"
	ctxDeviceAuthKey = "auth.viaDeviceKey"
	ctxTierKey       = "auth.tier"
	ctxUserKey       = "auth.user"

	CtxRequestID = "request_id"
)
