package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"quiz-studio/internal/domain"
)

// DefaultNamespace is the storage key of the authoring session.
const DefaultNamespace = "quiz_teacher_lite_no_math_ar_v6_matching"

const configSuffix = "_config"

// Codec maps the session and config onto two keys of a Store.
type Codec struct {
	store     Store
	namespace string
	logger    *slog.Logger
}

func NewCodec(store Store, namespace string, logger *slog.Logger) *Codec {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Codec{store: store, namespace: namespace, logger: logger}
}

func (c *Codec) SessionKey() string { return c.namespace }
func (c *Codec) ConfigKey() string  { return c.namespace + configSuffix }

// SaveSession writes the session record.
func (c *Codec) SaveSession(ctx context.Context, st domain.SessionState) error {
	data, err := EncodeSession(st)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, c.SessionKey(), string(data)); err != nil {
		return fmt.Errorf("save %s: %w", c.SessionKey(), err)
	}
	return nil
}

// SaveConfig writes the config record.
func (c *Codec) SaveConfig(ctx context.Context, cfg domain.QuizConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, c.ConfigKey(), string(data)); err != nil {
		return fmt.Errorf("save %s: %w", c.ConfigKey(), err)
	}
	return nil
}

// Save writes both records, attempting the second even if the first fails.
func (c *Codec) Save(ctx context.Context, st domain.SessionState, cfg domain.QuizConfig) error {
	return errors.Join(c.SaveSession(ctx, st), c.SaveConfig(ctx, cfg))
}

// Load restores both records. Missing or corrupt records fall back to
// defaults; found reports whether a session record was restored.
func (c *Codec) Load(ctx context.Context) (st domain.SessionState, cfg domain.QuizConfig, found bool) {
	st = domain.NewSessionState()
	cfg = domain.DefaultQuizConfig()

	if raw, err := c.store.Get(ctx, c.SessionKey()); err == nil {
		decoded, derr := DecodeSession([]byte(raw))
		if derr != nil {
			c.logger.Warn("ignoring unreadable session", "key", c.SessionKey(), "err", derr)
		} else {
			st, found = decoded, true
		}
	} else if !errors.Is(err, ErrNotFound) {
		c.logger.Warn("session read failed", "key", c.SessionKey(), "err", err)
	}

	if raw, err := c.store.Get(ctx, c.ConfigKey()); err == nil {
		decoded, derr := DecodeConfig([]byte(raw))
		if derr != nil {
			c.logger.Warn("ignoring unreadable config", "key", c.ConfigKey(), "err", derr)
		} else {
			cfg = decoded
		}
	} else if !errors.Is(err, ErrNotFound) {
		c.logger.Warn("config read failed", "key", c.ConfigKey(), "err", err)
	}
	return st, cfg, found
}

// Purge removes both records.
func (c *Codec) Purge(ctx context.Context) error {
	return errors.Join(c.store.Remove(ctx, c.SessionKey()), c.store.Remove(ctx, c.ConfigKey()))
}

// PurgeProgress removes the session record and keeps the config.
func (c *Codec) PurgeProgress(ctx context.Context) error {
	return c.store.Remove(ctx, c.SessionKey())
}
