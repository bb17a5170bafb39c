package aws

import (
	"github.com/buildbarn/bb-blockworker/pkg/configuration/http"
)

// StaticCredentials to use instead of the SDK's default credential
// chain.
type StaticCredentials struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
}

// SessionConfiguration contains the options used to construct AWS SDK
// clients.
type SessionConfiguration struct {
	Region            string                    `json:"region,omitempty"`
	StaticCredentials *StaticCredentials        `json:"staticCredentials,omitempty"`
	HTTPClient        *http.ClientConfiguration `json:"httpClient,omitempty"`

	// Role to assume through STS before accessing the bucket.
	AssumeRoleARN string `json:"assumeRoleArn,omitempty"`
}
