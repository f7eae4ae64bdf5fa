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
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/valpere/peredoc/internal/detector"
	"github.com/valpere/peredoc/internal/generator"
	"github.com/valpere/peredoc/internal/service"
	"github.com/valpere/peredoc/internal/store"
)

// buildGenerator constructs the configured backend with the configured
// temperature applied to every call.
func buildGenerator(ctx context.Context) (generator.Generator, error) {
	gen, err := generator.New(ctx, cfg.GeneratorConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", cfg.Backend, err)
	}
	if p, ok := gen.(interface{ Ping(context.Context) error }); ok {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := p.Ping(pingCtx); err != nil {
			logger.Warn("backend not reachable, calls will fail until it is", "backend", gen.Name(), "error", err)
		}
		cancel()
	}
	return generator.WithTemperature(gen, float32(cfg.Temperature)), nil
}

// openStore opens the database, creating its directory when needed.
func openStore() (*store.Store, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// buildService wires the backend and, unless noStore is set, the database.
// The returned close function releases the database.
func buildService(ctx context.Context, noStore bool) (*service.Service, func(), error) {
	gen, err := buildGenerator(ctx)
	if err != nil {
		return nil, nil, err
	}
	if noStore {
		return service.New(gen, cfg, nil, logger), func() {}, nil
	}
	db, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	return service.New(gen, cfg, db, logger), func() { db.Close() }, nil
}

// warnIfNotEnglish reports a source document that does not look English;
// every prompt assumes English input.
func warnIfNotEnglish(name, text string) {
	d, ok := detector.Shared().Inspect(text)
	if !ok || strings.EqualFold(d.ISO, "en") {
		return
	}
	fmt.Fprintf(os.Stderr, "Warning: %s looks like %s (confidence %.2f); prompts assume English source text\n",
		name, d.Name, d.Confidence)
}

// parseTerms turns "source=target" pairs into a term map.
func parseTerms(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	terms := make(map[string]string, len(pairs))
	for _, p := range pairs {
		src, dst, ok := strings.Cut(p, "=")
		src, dst = strings.TrimSpace(src), strings.TrimSpace(dst)
		if !ok || src == "" || dst == "" {
			return nil, fmt.Errorf("invalid term %q, want source=target", p)
		}
		terms[src] = dst
	}
	return terms, nil
}
