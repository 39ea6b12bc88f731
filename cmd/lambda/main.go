//go:build !lambda

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-lambda-go/events"

	"github.com/napolitain/blueprint-solver/internal/logging"
)

// Local invocation: reads a request body from stdin and prints the response
// the function URL would return.
func main() {
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()
	logging.SetDefaultStructuredLoggerWithLevel("blueprint-lambda", "dev", *logLevel)

	body, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read request: %v\n", err)
		os.Exit(1)
	}

	resp, err := handler(context.Background(), events.LambdaFunctionURLRequest{Body: string(body)})
	if err != nil {
		fmt.Fprintf(os.Stderr, "handler failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(resp.Body)
	if resp.StatusCode != 200 {
		os.Exit(1)
	}
}
