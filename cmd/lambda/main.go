/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
// Command lambda runs the translation pipeline as an AWS Lambda function.
// Settings come from PEREDOC_* environment variables.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/valpere/peredoc/internal/config"
	"github.com/valpere/peredoc/internal/generator"
	"github.com/valpere/peredoc/internal/pipeline"
	"github.com/valpere/peredoc/internal/service"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load(config.NewViper(), "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stderr, cfg.LogLevel, "json")

	gen, err := generator.New(ctx, cfg.GeneratorConfig())
	if err != nil {
		logger.Error("failed to create backend", "backend", cfg.Backend, "error", err)
		os.Exit(1)
	}
	gen = generator.WithTemperature(gen, float32(cfg.Temperature))

	h := &handler{svc: service.New(gen, cfg, nil, logger), logger: logger}
	lambda.Start(h.handle)
}

const warmupSource = "warmup"

// WarmupResponse answers scheduled keep-warm pings.
type WarmupResponse struct {
	Status string `json:"status"`
}

type handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// handle accepts a service.Request as JSON. Warmup pings return at once;
// a failed run is returned as a Result, not as an invocation error, so
// callers see which stage stopped.
func (h *handler) handle(ctx context.Context, event json.RawMessage) (any, error) {
	var warmup struct {
		Source string `json:"source"`
	}
	if err := json.Unmarshal(event, &warmup); err == nil && warmup.Source == warmupSource {
		return WarmupResponse{Status: "warm"}, nil
	}

	var req service.Request
	if err := json.Unmarshal(event, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	res, err := h.svc.Translate(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	if res.Failed() {
		h.logger.Warn("translation failed", "stage", res.Stage, "error", res.Error)
	}
	return lambdaResult(res), nil
}

// lambdaResult is res without the source text, which the caller sent.
func lambdaResult(res *pipeline.Result) *pipeline.Result {
	out := *res
	out.OriginalText = ""
	return &out
}
