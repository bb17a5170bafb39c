// Package ufs contains the configuration of the backing stores from
// which absent blocks are fetched.
package ufs

import (
	"github.com/buildbarn/bb-blockworker/pkg/configuration/cloud/aws"
	"github.com/buildbarn/bb-blockworker/pkg/configuration/cloud/gcp"
	"github.com/buildbarn/bb-blockworker/pkg/configuration/http"
)

// BackingStoreConfiguration describes a single backing store. Exactly
// one of the backends needs to be set.
type BackingStoreConfiguration struct {
	Local *LocalBackingStoreConfiguration `json:"local,omitempty"`
	S3    *S3BackingStoreConfiguration    `json:"s3,omitempty"`
	GCS   *GCSBackingStoreConfiguration   `json:"gcs,omitempty"`
	HTTP  *HTTPBackingStoreConfiguration  `json:"http,omitempty"`
}

// LocalBackingStoreConfiguration stores files in a local directory.
type LocalBackingStoreConfiguration struct {
	Path string `json:"path"`
}

// S3BackingStoreConfiguration stores files as objects in an S3 bucket.
type S3BackingStoreConfiguration struct {
	AWSSession *aws.SessionConfiguration `json:"awsSession,omitempty"`
	Bucket     string                    `json:"bucket"`
	KeyPrefix  string                    `json:"keyPrefix,omitempty"`
	// Custom endpoint, for S3 compatible stores such as MinIO.
	Endpoint     string `json:"endpoint,omitempty"`
	UsePathStyle bool   `json:"usePathStyle,omitempty"`
}

// GCSBackingStoreConfiguration stores files as objects in a Google
// Cloud Storage bucket.
type GCSBackingStoreConfiguration struct {
	ClientOptions *gcp.ClientOptionsConfiguration `json:"clientOptions,omitempty"`
	Bucket        string                          `json:"bucket"`
	ObjectPrefix  string                          `json:"objectPrefix,omitempty"`
}

// HTTPBackingStoreConfiguration fetches files from a web server that
// supports range requests.
type HTTPBackingStoreConfiguration struct {
	BaseURL    string                    `json:"baseUrl"`
	HTTPClient *http.ClientConfiguration `json:"httpClient,omitempty"`
}
