//go:build lambda

package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/napolitain/blueprint-solver/internal/logging"
)

func main() {
	logging.SetDefaultStructuredLogger("blueprint-lambda", "dev")
	lambda.Start(handler)
}
