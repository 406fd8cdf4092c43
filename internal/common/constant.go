package common

// AuthorizationHeaderName carries the bearer access token on API requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the scheme prefix expected in the Authorization header.
const BearerPrefix = "Bearer "

// WorkerKeyHeaderName authenticates the summarization worker on the internal
// status-report endpoint.
const WorkerKeyHeaderName = "X-Worker-Key"

// MaxPaperUploadSize caps direct paper uploads at 25 MiB; the limit is baked
// into the presigned POST policy.
const MaxPaperUploadSize = 25 << 20

// MaxProfileImageSize caps profile image uploads at 5 MiB.
const MaxProfileImageSize = 5 << 20
