package httpx

const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderLocation      = "Location"

	ContentTypeJSONUTF8 = "application/json; charset=utf-8"
)
