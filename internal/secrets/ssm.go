// Package secrets resolves API keys from AWS Systems Manager Parameter Store
// when they are not provided through the environment.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/m3rciful/superbot/core/logger"
)

// ssmAPI is the part of *ssm.Client the store needs.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter fetches one decrypted parameter value.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// ParameterStore reads SecureString parameters.
type ParameterStore struct {
	api ssmAPI
}

// New wraps an SSM API implementation.
func New(api ssmAPI) (*ParameterStore, error) {
	if api == nil {
		return nil, errors.New("secrets: api must not be nil")
	}
	return &ParameterStore{api: api}, nil
}

// NewFromEnvironment builds a store from the default AWS credential chain.
// An empty region defers to AWS_REGION and the shared config files.
func NewFromEnvironment(ctx context.Context, region string) (*ParameterStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region = strings.TrimSpace(region); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secrets: load aws config: %w", err)
	}
	return New(ssm.NewFromConfig(cfg))
}

func (s *ParameterStore) GetParameter(ctx context.Context, name string) (string, error) {
	if s == nil || s.api == nil {
		return "", errors.New("secrets: store not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("secrets: parameter name is required")
	}
	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("secrets: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("secrets: parameter %q has no value", name)
	}
	return *out.Parameter.Value, nil
}

// Target pairs a parameter name with the field it fills.
type Target struct {
	Param string
	Dst   *string
}

// Resolve fills every empty destination whose parameter name is set. Values
// already present (from the environment or the config file) are kept.
func Resolve(ctx context.Context, g Getter, targets ...Target) error {
	for _, t := range targets {
		if t.Dst == nil || strings.TrimSpace(*t.Dst) != "" || strings.TrimSpace(t.Param) == "" {
			continue
		}
		v, err := g.GetParameter(ctx, t.Param)
		if err != nil {
			return err
		}
		*t.Dst = strings.TrimSpace(v)
		logger.Info(ctx, "secrets", "secrets.resolve",
			slog.String("status", "ok"),
			slog.String("path", t.Param),
		)
	}
	return nil
}
