package gcp

import (
	gcp_pb "github.com/buildbarn/bb-blockworker/pkg/configuration/cloud/gcp"

	"google.golang.org/api/option"
)

// NewClientOptionsFromConfiguration creates a list of Google Cloud SDK
// client options based on options specified in a configuration file.
// The resulting client options object can be used to access GCP
// services such as GCS.
func NewClientOptionsFromConfiguration(configuration *gcp_pb.ClientOptionsConfiguration) []option.ClientOption {
	var clientOptions []option.ClientOption
	if configuration == nil {
		return clientOptions
	}
	if credentialsFile := configuration.CredentialsFile; credentialsFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credentialsFile))
	}
	if endpoint := configuration.Endpoint; endpoint != "" {
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}
	if configuration.WithoutAuthentication {
		clientOptions = append(clientOptions, option.WithoutAuthentication())
	}
	return clientOptions
}
