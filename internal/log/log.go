// Copyright 2023 Sourcegraph Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log is a minimal structured-logging wrapper around zap: callers
// get a Scoped logger instead of reaching for the global "log" package
// directly.
package log

import (
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.Mutex
	root   *zap.Logger
	inited bool
)

// Options configures the root logger. A zero Options gives console-encoded,
// info-level output to stderr, not in development mode.
type Options struct {
	// Development puts the logger in zap's development mode, in which
	// DPanic-level entries panic. Encoding and level are unaffected.
	Development bool

	// FilePath, if set, additionally writes JSON-encoded entries to this
	// path with size-based rotation via lumberjack.
	FilePath string
}

// Init installs the root logger. It is safe to call once at process
// startup; subsequent calls are no-ops -- call it once in main, not in
// an init().
func Init(opts Options) {
	mu.Lock()
	defer mu.Unlock()
	if inited {
		return
	}
	inited = true

	level := zapcore.InfoLevel
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core
	consoleEnc := zapcore.NewConsoleEncoder(encCfg)
	cores = append(cores, zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stderr), level))

	if opts.FilePath != "" {
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
		jsonEnc := zapcore.NewJSONEncoder(encCfg)
		cores = append(cores, zapcore.NewCore(jsonEnc, w, level))
	}

	core := zapcore.NewTee(cores...)
	l := zap.New(core)
	if opts.Development {
		l = l.WithOptions(zap.Development())
	}
	root = l
}

// Scoped returns a named logger, initializing a safe default root logger
// on first use if Init was never called.
func Scoped(name string) *zap.SugaredLogger {
	mu.Lock()
	if !inited {
		mu.Unlock()
		Init(Options{Development: true})
		mu.Lock()
	}
	l := root
	mu.Unlock()
	return l.Named(name).Sugar()
}

// Bytes formats a byte count the way build/search progress messages do,
// e.g. "4.2 MB", for use as a zap field value.
func Bytes(n int64) string {
	return humanize.Bytes(uint64(n))
}
