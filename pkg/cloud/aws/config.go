package aws

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	aws_pb "github.com/buildbarn/bb-blockworker/pkg/configuration/cloud/aws"
	bb_http "github.com/buildbarn/bb-blockworker/pkg/http"
	"github.com/buildbarn/bb-blockworker/pkg/util"
)

// NewConfigFromConfiguration creates a new AWS SDK config object based
// on options specified in a session configuration message. The
// resulting config object can be used to access AWS services such as
// S3.
func NewConfigFromConfiguration(ctx context.Context, configuration *aws_pb.SessionConfiguration, name string) (aws.Config, error) {
	if configuration == nil {
		configuration = &aws_pb.SessionConfiguration{}
	}
	roundTripper, err := bb_http.NewRoundTripperFromConfiguration(configuration.HTTPClient)
	if err != nil {
		return aws.Config{}, util.StatusWrap(err, "Failed to create HTTP client")
	}
	loadOptions := []func(*config.LoadOptions) error{
		config.WithHTTPClient(&http.Client{
			Transport: bb_http.NewMetricsRoundTripper(roundTripper, name),
		}),
	}
	if region := configuration.Region; region != "" {
		loadOptions = append(loadOptions, config.WithRegion(region))
	}
	if staticCredentials := configuration.StaticCredentials; staticCredentials != nil {
		loadOptions = append(loadOptions,
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(
					staticCredentials.AccessKeyID,
					staticCredentials.SecretAccessKey,
					"")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return aws.Config{}, util.StatusWrap(err, "Failed to load AWS configuration")
	}

	// Obtain temporary credentials for the configured role, using
	// the credentials loaded above to call STS.
	if roleARN := configuration.AssumeRoleARN; roleARN != "" {
		cfg.Credentials = aws.NewCredentialsCache(
			stscreds.NewAssumeRoleProvider(
				sts.NewFromConfig(cfg),
				roleARN,
				func(o *stscreds.AssumeRoleOptions) {
					o.RoleSessionName = name
				}))
	}
	return cfg, nil
}
