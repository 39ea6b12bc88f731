package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	cerrors "github.com/napolitain/blueprint-solver/internal/errors"
	"github.com/napolitain/blueprint-solver/internal/loader"
	"github.com/napolitain/blueprint-solver/internal/models"
	"github.com/napolitain/blueprint-solver/internal/scenario"
	"github.com/napolitain/blueprint-solver/internal/solver/frontier"
)

// maxLambdaHorizon keeps a single invocation well inside the function timeout.
const maxLambdaHorizon = 40

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

type solveRequest struct {
	Blueprint string         `json:"blueprint"`
	Table     *loader.Record `json:"table"`
	Horizon   *int           `json:"horizon"`
}

func handler(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errResp(400, "invalid base64 body")
		}
		body = string(decoded)
	}

	var req solveRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return errResp(400, "invalid JSON: "+err.Error())
	}
	horizon := scenario.QualityHorizon
	if req.Horizon != nil {
		horizon = *req.Horizon
	}
	if horizon < 0 || horizon > maxLambdaHorizon {
		return errResp(400, fmt.Sprintf("horizon must be between 0 and %d", maxLambdaHorizon))
	}

	var bp *models.Blueprint
	switch {
	case req.Table != nil:
		parsed, err := req.Table.Blueprint()
		if err != nil {
			return errResp(400, err.Error())
		}
		bp = parsed
	case req.Blueprint != "":
		parsed, err := loader.ParseText(strings.NewReader(req.Blueprint))
		if err != nil {
			return errResp(400, err.Error())
		}
		if len(parsed) != 1 {
			return errResp(400, "expected exactly one blueprint")
		}
		bp = parsed[0]
	default:
		return errResp(400, "missing blueprint or table field")
	}

	outcomes, err := scenario.NewRunner(frontier.DefaultConfig(), 1).Run(ctx, []*models.Blueprint{bp}, horizon)
	if err != nil {
		status := 500
		if cerrors.HasCode(err, cerrors.ErrCodeCanceled) {
			status = 503
		}
		return errResp(status, err.Error())
	}

	respJSON, err := json.Marshal(outcomes[0])
	if err != nil {
		return errResp(500, "failed to encode result: "+err.Error())
	}
	return events.LambdaFunctionURLResponse{StatusCode: 200, Headers: jsonHeader, Body: string(respJSON)}, nil
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		code, body = 500, []byte(`{"error":"internal error"}`)
	}
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}
