package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/splitlist/taskboard/client"
	"github.com/splitlist/taskboard/client/rest"
	"github.com/splitlist/taskboard/domain"
	"github.com/splitlist/taskboard/internal/infrastructure/snapshot"
	"github.com/splitlist/taskboard/pkg/logger"
)

// credentials is what login writes to the token file. Profile is kept so the
// client knows who it acts as without a round trip.
type credentials struct {
	Token     string         `json:"token"`
	SessionID string         `json:"session_id"`
	Profile   domain.Profile `json:"profile"`
	SavedAt   time.Time      `json:"saved_at"`
}

func loadCredentials(path string) (*credentials, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("not logged in, run \"boardctl login\" first")
		}
		return nil, err
	}

	var creds credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("token file %s is unreadable: %w", path, err)
	}
	if creds.Token == "" || creds.Profile.ID == "" {
		return nil, fmt.Errorf("token file %s is incomplete, run \"boardctl login\" again", path)
	}
	return &creds, nil
}

func saveCredentials(path string, creds credentials) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	creds.SavedAt = time.Now()
	raw, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func newCLILogger(opts *RootOptions) *zap.Logger {
	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	return logger.Must(logger.Config{Level: level, Encoding: "console"})
}

// session bundles the wired client stack behind one Close.
type session struct {
	creds  *credentials
	source *rest.Source
	client *client.Client
	snap   *snapshot.Cache
	logger *zap.Logger
}

func (s *session) Close() {
	if s.snap != nil {
		if err := s.snap.Close(); err != nil {
			s.logger.Warn("snapshot close failed", zap.Error(err))
		}
	}
	_ = s.logger.Sync()
}

// openSession loads the stored credentials and builds the REST source, the
// snapshot cache and the client on top of them. A broken snapshot file is
// logged and skipped rather than blocking the command.
func openSession(opts *RootOptions) (*session, error) {
	log := newCLILogger(opts)

	creds, err := loadCredentials(opts.TokenPath)
	if err != nil {
		return nil, err
	}

	source := rest.New(opts.ServerURL, rest.Options{
		Token:   creds.Token,
		Timeout: opts.Timeout,
		Logger:  log,
	})

	var snap *snapshot.Cache
	if opts.SnapshotPath != "" {
		snap, err = snapshot.Open(opts.SnapshotPath)
		if err != nil {
			log.Warn("snapshot cache unavailable", zap.String("path", opts.SnapshotPath), zap.Error(err))
			snap = nil
		}
	}

	c := client.New(source, creds.Profile, client.Options{
		Directory: source,
		Snapshot:  snap,
		Logger:    log,
	})

	return &session{
		creds:  creds,
		source: source,
		client: c,
		snap:   snap,
		logger: log,
	}, nil
}

// loadBoard refreshes the directory and the task list. When the server is
// unreachable it falls back to the snapshot and returns a notice to print
// above the stale output; any other failure is returned as is.
func loadBoard(ctx context.Context, s *session) (string, error) {
	if err := s.client.RefreshDirectory(ctx); err != nil {
		if !domain.IsDomainError(err, domain.ErrCodeTransient) {
			return "", err
		}
		s.logger.Debug("directory refresh failed", zap.Error(err))
	}

	err := s.client.Refresh(ctx)
	if err == nil {
		return "", nil
	}
	if !domain.IsDomainError(err, domain.ErrCodeTransient) {
		return "", err
	}

	savedAt, restoreErr := s.client.RestoreLastKnown()
	if restoreErr != nil || s.client.Store().Len() == 0 {
		return "", err
	}
	return fmt.Sprintf("offline: showing the board saved at %s", savedAt.Local().Format("2006-01-02 15:04")), nil
}

// resolveCategory maps a category id or name to its id. With no directory
// cached the ref passes through and the server validates it.
func resolveCategory(categories []domain.Category, ref string) (string, error) {
	if ref == "" || len(categories) == 0 {
		return ref, nil
	}
	for _, cat := range categories {
		if cat.ID == ref {
			return cat.ID, nil
		}
	}
	for _, cat := range categories {
		if strings.EqualFold(cat.Name, ref) {
			return cat.ID, nil
		}
	}
	return "", domain.ErrCategoryNotFound
}

// resolveProfile maps a profile id, email or display name to the profile id.
// Non-admins cannot list profiles, so with an empty directory the ref passes
// through untouched.
func resolveProfile(profiles []domain.Profile, ref string) (string, error) {
	if ref == "" || len(profiles) == 0 {
		return ref, nil
	}
	for _, p := range profiles {
		if p.ID == ref {
			return p.ID, nil
		}
	}
	for _, p := range profiles {
		if strings.EqualFold(p.Email, ref) || strings.EqualFold(p.DisplayName, ref) {
			return p.ID, nil
		}
	}
	return "", domain.ErrProfileNotFound
}

func commandContext(opts *RootOptions) (context.Context, context.CancelFunc) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	// Mutating commands issue a write plus a full re-read, so the command
	// deadline spans several request timeouts.
	return context.WithTimeout(context.Background(), 3*timeout)
}
