package config

import "os"

// ServerlessConfig holds serverless-specific configuration
type ServerlessConfig struct {
	IsServerless bool
	Platform     string
	FunctionName string
	Region       string
}

// DetectServerless reports the function runtime the process runs in, read from the environment
func DetectServerless() *ServerlessConfig {
	switch {
	case os.Getenv("FC_FUNCTION_NAME") != "":
		return &ServerlessConfig{
			IsServerless: true,
			Platform:     "fc",
			FunctionName: os.Getenv("FC_FUNCTION_NAME"),
			Region:       GetEnv("FC_REGION", os.Getenv("ALIBABA_CLOUD_REGION")),
		}
	case os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "":
		return &ServerlessConfig{
			IsServerless: true,
			Platform:     "lambda",
			FunctionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
			Region:       os.Getenv("AWS_REGION"),
		}
	default:
		return &ServerlessConfig{Platform: "local"}
	}
}

// IsServerlessMode returns true if running inside a function runtime
func IsServerlessMode() bool {
	return DetectServerless().IsServerless
}

// GetDeploymentMode returns the current deployment mode
func GetDeploymentMode() string {
	if IsServerlessMode() {
		return "serverless"
	}
	return "server"
}

// AdaptConfigForServerless modifies configuration for serverless deployment.
// Inside a function runtime storage is always the managed bucket.
func AdaptConfigForServerless(sc *ServerlessConfig, config *Config) *Config {
	if !sc.IsServerless {
		return config
	}

	if config.Storage.Type == "local" {
		config.Storage.Type = "oss"
	}
	if sc.Region != "" && config.Storage.DefaultRegion == DefaultOSSRegion {
		config.Storage.DefaultRegion = sc.Region
	}
	if os.Getenv("ENVIRONMENT") == "" {
		config.Environment = "production"
	}

	return config
}

// GetOptimizedConfig returns configuration adapted to the detected runtime
func GetOptimizedConfig(sc *ServerlessConfig) (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}

	return AdaptConfigForServerless(sc, config), nil
}
