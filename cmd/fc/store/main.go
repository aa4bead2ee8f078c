package main

import (
	awslambda "github.com/aws/aws-lambda-go/lambda"

	"findphone-functions/internal/config"
	"findphone-functions/pkg/lambda"
	"findphone-functions/pkg/server"
)

var container *server.Container

func init() {
	cfg, err := config.GetOptimizedConfig(config.DetectServerless())
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	container, err = server.NewContainer(cfg)
	if err != nil {
		panic("Failed to initialize container: " + err.Error())
	}
}

func main() {
	awslambda.Start(lambda.NewInvoker(container.Store.Handle))
}
