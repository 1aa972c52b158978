package accountstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// awsSettings holds the keys shared by the AWS stores.
type awsSettings struct {
	Region          string
	Profile         string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	RoleARN         string
	Prefix          string
}

func parseAWSSettings(config map[string]interface{}, defaultPrefix string) awsSettings {
	return awsSettings{
		Region:          stringOption(config, "region", "us-east-1"),
		Profile:         stringOption(config, "profile", ""),
		Endpoint:        stringOption(config, "endpoint", ""),
		AccessKeyID:     stringOption(config, "access_key_id", ""),
		SecretAccessKey: stringOption(config, "secret_access_key", ""),
		RoleARN:         stringOption(config, "role_arn", ""),
		Prefix:          stringOption(config, "prefix", defaultPrefix),
	}
}

// loadAWSConfig builds an aws.Config. Static keys win over the default chain;
// role_arn assumes a role on top of whichever credentials were loaded.
func loadAWSConfig(ctx context.Context, s awsSettings) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(s.Region))

	if s.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(s.Profile))
	}
	if s.AccessKeyID != "" && s.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if s.RoleARN != "" {
		provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), s.RoleARN, func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = "dsauth"
		})
		cfg.Credentials = aws.NewCredentialsCache(provider)
	}
	return cfg, nil
}

// isAWSAuthError matches errors that retrying cannot fix.
func isAWSAuthError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "AccessDenied") ||
		strings.Contains(errStr, "UnauthorizedOperation") ||
		strings.Contains(errStr, "InvalidClientTokenId") ||
		strings.Contains(errStr, "Forbidden")
}
