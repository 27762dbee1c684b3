//go:build js && wasm

// Command quizwasm is the quiz core that runs inside the exported student
// document. It reads the quiz from window.__QUIZ__, keeps progress in
// localStorage and exposes window.quizRuntime to the page script.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"syscall/js"
	"time"

	"quiz-studio/internal/app"
	"quiz-studio/internal/domain"
	"quiz-studio/internal/infra/memory"
	"quiz-studio/internal/persist"
)

type payload struct {
	State      json.RawMessage `json:"state"`
	Config     json.RawMessage `json:"config"`
	StorageKey string          `json:"storageKey"`
	TickMS     int64           `json:"tickMs"`
	AutoAdvMS  int64           `json:"autoAdvanceMs"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()

	var data payload
	raw := js.Global().Get("JSON").Call("stringify", js.Global().Get("__QUIZ__")).String()
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		logger.Error("quiz data unreadable", "err", err)
		return
	}
	state, err := persist.DecodeSession(data.State)
	if err != nil {
		logger.Error("quiz state unreadable", "err", err)
		return
	}
	cfg, _ := persist.DecodeConfig(data.Config)

	var store persist.Store
	if ls, err := newLocalStorage(); err == nil {
		store = ls
	} else {
		logger.Warn("progress will not survive a reload", "err", err)
		store = memory.NewStore()
	}
	codec := persist.NewCodec(store, data.StorageKey, logger)
	// Saved progress wins, but only if it belongs to the same questions.
	if saved, _, found := codec.Load(ctx); found && sameQuestions(saved.Questions, state.Questions) {
		state = saved
	}

	service := app.NewQuizService(state, cfg, codec, app.Options{
		Tick:        time.Duration(data.TickMS) * time.Millisecond,
		AutoAdvance: time.Duration(data.AutoAdvMS) * time.Millisecond,
		Logger:      logger,
	})
	service.Start()

	runtime := newRuntime(ctx, service)
	js.Global().Set("quizRuntime", runtime)
	if cb := js.Global().Get("onQuizRuntime"); cb.Type() == js.TypeFunction {
		cb.Invoke(runtime)
	}
	select {}
}

func sameQuestions(a, b []domain.Question) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !domain.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
