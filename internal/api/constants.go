package api

// Cache-Control header values.
const (
	CacheOneDay  = "public, max-age=86400"
	CacheNoStore = "no-cache"
)

// maxJSONBodyBytes bounds JSON request bodies on huma operations.
const maxJSONBodyBytes = 1 << 20
