package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polyarb/config"
	"github.com/alejandrodnm/polyarb/internal/adapters/llm"
	"github.com/alejandrodnm/polyarb/internal/adapters/notify"
	"github.com/alejandrodnm/polyarb/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyarb/internal/adapters/storage"
	"github.com/alejandrodnm/polyarb/internal/execution"
	"github.com/alejandrodnm/polyarb/internal/monitor"
	"github.com/alejandrodnm/polyarb/internal/ports"
	"github.com/alejandrodnm/polyarb/internal/review"
	"github.com/alejandrodnm/polyarb/internal/scanner"
)

// app tiene todas las dependencias cableadas del proceso.
type app struct {
	cfg      *config.Config
	store    *storage.SQLiteStorage
	client   *polymarket.Client
	risk     *config.RiskFile
	console  *notify.Console
	monitor  *monitor.Monitor
	queue    *review.Queue
	modes    *execution.Modes
	executor *execution.Executor
	router   *execution.Router
	closed   bool
}

func newApp(cfg *config.Config) (*app, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage %q: %w", cfg.Storage.DSN, err)
	}

	a := &app{
		cfg:     cfg,
		store:   store,
		client:  polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase),
		risk:    config.NewRiskFile(cfg.Risk.Path),
		console: notify.NewConsole(),
	}

	senders := []ports.AlertSender{a.console}
	var tg *notify.Telegram
	if cfg.Telegram.Enabled() {
		tg, err = notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries)
		if err != nil {
			slog.Warn("telegram disabled", "err", err)
			tg = nil
		} else {
			senders = append(senders, tg)
		}
	}

	a.monitor = monitor.New(store, cfg.Monitoring.Alerts, senders...)
	a.queue = review.NewQueue(store, execution.NewAuditObserver(store), a.monitor, a.console)
	if tg != nil {
		a.queue.Subscribe(tg)
	}
	a.modes = execution.NewModes(store, store)
	a.executor = execution.NewExecutor(
		a.queue,
		a.risk,
		a.modes,
		execution.NewSubmitter(a.liveSubmitter()),
		a.monitor,
		store,
	)
	a.router = execution.NewRouter(a.queue, a.risk, a.modes, a.executor)
	return a, nil
}

// liveSubmitter arma el firmante de órdenes si hay clave privada. Sin clave
// el submitter live queda sin auth y cada pata falla con un mensaje.
func (a *app) liveSubmitter() *polymarket.LiveSubmitter {
	if !a.cfg.Wallet.HasPrivateKey() {
		return polymarket.NewLiveSubmitter(nil)
	}
	auth, err := polymarket.NewAuthClient(a.client, a.cfg.Wallet.PrivateKey, polymarket.Credentials{
		APIKey:     a.cfg.Wallet.APIKey,
		Secret:     a.cfg.Wallet.APISecret,
		Passphrase: a.cfg.Wallet.APIPassphrase,
	})
	if err != nil {
		slog.Error("live trading disabled: invalid private key", "err", err)
		return polymarket.NewLiveSubmitter(nil)
	}
	slog.Info("live trading wallet loaded", "address", auth.Address())
	return polymarket.NewLiveSubmitter(auth)
}

// scanner arma el pipeline. Sin API key del LLM no hay clasificación posible.
func (a *app) scanner(ctx context.Context) (*scanner.Scanner, error) {
	if a.cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("GOOGLE_GEMINI_API_KEY or GEMINI_API_KEY is required")
	}
	gemini, err := llm.NewGeminiClient(ctx, llm.Options{
		BaseURL:           a.cfg.LLM.BaseURL,
		APIKey:            a.cfg.LLM.APIKey,
		Model:             a.cfg.LLM.Model,
		RequestsPerMinute: a.cfg.LLM.RequestsPerMinute,
	})
	if err != nil {
		return nil, err
	}
	classifier := scanner.NewClassifier(gemini, scanner.ClassifierConfig{
		Model:       a.cfg.LLM.Model,
		Temperature: a.cfg.LLM.Temperature,
		MaxTokens:   a.cfg.LLM.MaxTokens,
	})

	scanCfg := scanner.DefaultConfig()
	scanCfg.Interval = a.cfg.PipelineInterval()
	scanCfg.EventLimit = a.cfg.Pipeline.EventLimit
	scanCfg.TopEvents = a.cfg.Pipeline.TopEvents

	return scanner.New(scanCfg, a.client, classifier, a.risk, a.router, a.monitor, a.store), nil
}

func (a *app) close() {
	if a.closed {
		return
	}
	a.closed = true
	if err := a.store.Close(); err != nil {
		slog.Warn("close storage", "err", err)
	}
}
