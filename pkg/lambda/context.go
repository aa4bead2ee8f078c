package lambda

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
)

// InvocationFromContext builds the invocation description from the runtime
// context and the credentials the platform injects into the environment.
func InvocationFromContext(ctx context.Context) *Invocation {
	inv := &Invocation{
		Region:       firstEnv("FC_REGION", "ALIBABA_CLOUD_REGION", "AWS_REGION"),
		FunctionName: firstEnv("FC_FUNCTION_NAME", "AWS_LAMBDA_FUNCTION_NAME"),
	}

	if lc, ok := lambdacontext.FromContext(ctx); ok {
		inv.RequestID = lc.AwsRequestID
	}
	if inv.RequestID == "" {
		inv.RequestID = uuid.New().String()
	}

	inv.Credentials = CredentialsFromEnv()
	return inv
}

// CredentialsFromEnv reads temporary credentials from the environment.
// It returns nil when no access key is present.
func CredentialsFromEnv() *Credentials {
	creds := &Credentials{
		AccessKeyID:     firstEnv("ALIBABA_CLOUD_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"),
		AccessKeySecret: firstEnv("ALIBABA_CLOUD_ACCESS_KEY_SECRET", "AWS_SECRET_ACCESS_KEY"),
		SecurityToken:   firstEnv("ALIBABA_CLOUD_SECURITY_TOKEN", "AWS_SESSION_TOKEN"),
	}
	if creds.AccessKeyID == "" {
		return nil
	}
	return creds
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}
