package gcp

// ClientOptionsConfiguration contains the options used to construct
// Google Cloud SDK clients.
type ClientOptionsConfiguration struct {
	// Path of a service account key file. When empty, Application
	// Default Credentials are used.
	CredentialsFile string `json:"credentialsFile,omitempty"`

	// Override of the service endpoint.
	Endpoint string `json:"endpoint,omitempty"`

	// Access the service without authentication. This is useful
	// for public buckets and emulators.
	WithoutAuthentication bool `json:"withoutAuthentication,omitempty"`
}
