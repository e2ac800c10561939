// Package s3 issues presigned download URLs for resource files stored in
// Amazon S3 or an S3-compatible service (MinIO, R2, Wasabi).
//
// The Presigner checks the object exists with HeadObject, then signs a GET
// request carrying a Content-Disposition: attachment override. Object store
// errors are mapped onto package sentinels (ErrFileNotFound,
// ErrAccessDenied, ErrServiceUnavailable, ...).
//
// Configuration comes from S3_BUCKET, S3_REGION, S3_ACCESS_KEY_ID,
// S3_SECRET_ACCESS_KEY, S3_ENDPOINT, S3_FORCE_PATH_STYLE and S3_URL_EXPIRY.
package s3
