package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ezlumper/haulpass-cli/internal/domain"
	"github.com/ezlumper/haulpass-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName      = "config"
	configType      = "toml"
	sessionPathKey  = "session.path"
	sessionFileMode = 0o600
	sessionDirMode  = 0o700
	configDir       = ".haulpass"
	sessionFile     = "session.toml"
	tempFilePattern = ".session-*.toml.tmp"
	schemaVersion   = 1
)

// Store persists the portal session profile (cookie + last session snapshot)
// as a TOML file. The file holds a credential, so it is written 0600 via an
// atomic temp-file rename.
type Store struct {
	sessionPath string
	mu          *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.SessionStore = (*Store)(nil)

func NewStore(cfg *viper.Viper) (*Store, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, configDir, sessionFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDir))
	cfg.SetDefault(sessionPathKey, defaultPath)

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	sessionPath := cfg.GetString(sessionPathKey)
	if sessionPath == "" {
		return nil, errors.New("session path is empty")
	}
	sessionPath, err = normalizePath(sessionPath)
	if err != nil {
		return nil, err
	}

	return &Store{sessionPath: sessionPath, mu: lockForPath(sessionPath)}, nil
}

type fileSchema struct {
	Version  int             `toml:"version"`
	Cookie   string          `toml:"cookie"`
	SavedAt  time.Time       `toml:"saved_at"`
	Snapshot *snapshotSchema `toml:"snapshot,omitempty"`
}

type snapshotSchema struct {
	UserEmail    string `toml:"user_email"`
	UserRole     string `toml:"user_role"`
	UserPhone    string `toml:"user_phone,omitempty"`
	CompanyName  string `toml:"company_name,omitempty"`
	MemberNumber string `toml:"member_number"`
	PlanType     string `toml:"plan_type"`
	Credits      int    `toml:"credits"`
	CardOnFile   bool   `toml:"card_on_file"`
	BillingEmail string `toml:"billing_email,omitempty"`
	BillingPhone string `toml:"billing_phone,omitempty"`
}

func (f *fileSchema) validateVersion() error {
	if f.Version > schemaVersion {
		return fmt.Errorf("session file version %d is newer than supported version %d", f.Version, schemaVersion)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (ports.Profile, error) {
	if err := ctx.Err(); err != nil {
		return ports.Profile{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.sessionPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ports.Profile{}, domain.ErrSessionNotFound
		}
		return ports.Profile{}, fmt.Errorf("read session file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return ports.Profile{}, fmt.Errorf("decode session file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return ports.Profile{}, err
	}
	if file.Cookie == "" {
		return ports.Profile{}, domain.ErrSessionNotFound
	}

	return fromSchema(file), nil
}

func (s *Store) Save(ctx context.Context, profile ports.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(toSchema(profile))
}

func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.sessionPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func toSchema(profile ports.Profile) fileSchema {
	file := fileSchema{
		Version: schemaVersion,
		Cookie:  profile.Cookie,
		SavedAt: profile.SavedAt,
	}
	if profile.Snapshot != nil {
		file.Snapshot = &snapshotSchema{
			UserEmail:    profile.Snapshot.User.Email,
			UserRole:     profile.Snapshot.User.Role,
			UserPhone:    profile.Snapshot.User.Phone,
			CompanyName:  profile.Snapshot.Company.Name,
			MemberNumber: profile.Snapshot.Company.MemberNumber,
			PlanType:     string(profile.Snapshot.Company.PlanType),
			Credits:      profile.Snapshot.Company.Credits,
			CardOnFile:   profile.Snapshot.Company.CardOnFile,
			BillingEmail: profile.Snapshot.Company.BillingEmail,
			BillingPhone: profile.Snapshot.Company.BillingPhone,
		}
	}
	return file
}

func fromSchema(file fileSchema) ports.Profile {
	profile := ports.Profile{
		Cookie:  file.Cookie,
		SavedAt: file.SavedAt,
	}
	if file.Snapshot != nil {
		profile.Snapshot = &domain.Session{
			User: domain.User{
				Email: file.Snapshot.UserEmail,
				Role:  file.Snapshot.UserRole,
				Phone: file.Snapshot.UserPhone,
			},
			Company: domain.Company{
				Name:         file.Snapshot.CompanyName,
				MemberNumber: file.Snapshot.MemberNumber,
				PlanType:     domain.PlanType(file.Snapshot.PlanType),
				Credits:      file.Snapshot.Credits,
				CardOnFile:   file.Snapshot.CardOnFile,
				BillingEmail: file.Snapshot.BillingEmail,
				BillingPhone: file.Snapshot.BillingPhone,
			},
		}
	}
	return profile
}

func (s *Store) write(file fileSchema) error {
	if err := os.MkdirAll(filepath.Dir(s.sessionPath), sessionDirMode); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.sessionPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp session file: %w", err)
	}

	if err := tempFile.Chmod(sessionFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp session file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp session file: %w", err)
	}

	if err := os.Rename(tempName, s.sessionPath); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}

	cleanup = false
	return nil
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve session path: %w", err)
	}
	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
