package log

const (
	KeyAppName            = "app"
	KeyRequestID          = "requestId"
	KeyTraceID            = "traceId"
	KeySpanID             = "spanId"
	KeyProcess            = "process"
	KeyToken              = "token"
	KeyEmail              = "email"
	KeyTag                = "tag"
	KeyRequest            = "request"
	KeyRequestBody        = "requestBody"
	KeyRequestHeader      = "requestHeader"
	KeyRequestHost        = "host"
	KeyRequestIp          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestProcessedAt = "requestProcessedAt"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeyResponseStatus     = "responseStatus"
	KeyConfig             = "config"
	KeySessionID          = "sessionId"
	KeyUserID             = "userId"
	KeyRole               = "role"
	KeyProductID          = "productId"
	KeyProduct            = "product"
	KeyProducts           = "products"
	KeyQuantity           = "quantity"
	KeyCartLines          = "cartLines"
	KeyCartTotal          = "cartTotal"
	KeyCartItemCount      = "cartItemCount"
	KeyStorageKey         = "storageKey"
	KeyStorageDriver      = "storageDriver"
	KeyCacheKey           = "cacheKey"
	KeyCheckoutState      = "checkoutState"
	KeyCheckoutReason     = "checkoutReason"
	KeyAddressID          = "addressId"
	KeyPaymentMethodID    = "paymentMethodId"
	KeyOrder              = "order"
	KeyOrderID            = "orderId"
	KeyOrders             = "orders"
	KeyPurchaseID         = "purchaseId"
	KeySupplierID         = "supplierId"
	KeyBackendURL         = "backendUrl"
	KeyStatusCode         = "statusCode"
	KeyPathValues         = "pathValues"
	KeyDbURL              = "dbUrl"
	KeySubscription       = "subscription"
)
