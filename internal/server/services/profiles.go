package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/duet/internal/common"
	"github.com/dmitrijs2005/duet/internal/dbx"
	"github.com/dmitrijs2005/duet/internal/server/auth"
	"github.com/dmitrijs2005/duet/internal/server/config"
	"github.com/dmitrijs2005/duet/internal/server/models"
	"github.com/dmitrijs2005/duet/internal/server/repositories/repomanager"
)

const (
	minPinLength = 4
	// bcrypt ignores input past 72 bytes
	maxPinLength = 72
)

// bcryptCost is lowered in tests.
var bcryptCost = bcrypt.DefaultCost

// Session is the result of a successful login.
type Session struct {
	AccessToken string
	Name        string
	Partner     string
}

// ProfileService handles PIN login and PIN changes for the two partners.
// Failed and successful attempts both consume the per-profile limiter.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	jwtSecret   []byte
	tokenTTL    time.Duration

	attempts rate.Limit
	burst    int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *ProfileService {
	perMinute := cfg.LoginAttemptsPerMinute
	if perMinute <= 0 {
		perMinute = 5
	}
	return &ProfileService{
		db:          db,
		repomanager: m,
		jwtSecret:   []byte(cfg.SecretKey),
		tokenTTL:    cfg.AccessTokenValidityDuration,
		attempts:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:       perMinute,
		limiters:    map[string]*rate.Limiter{},
	}
}

func (s *ProfileService) limiter(name string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[name]
	if !ok {
		l = rate.NewLimiter(s.attempts, s.burst)
		s.limiters[name] = l
	}
	return l
}

func hashPin(pin string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pin), bcryptCost)
}

func checkPinFormat(pin string) error {
	if len(pin) < minPinLength {
		return fmt.Errorf("%w: PIN must have at least %d characters", common.ErrValidation, minPinLength)
	}
	if len(pin) > maxPinLength {
		return fmt.Errorf("%w: PIN too long", common.ErrValidation)
	}
	return nil
}

// Seed creates the two partner profiles with initialPin unless they exist.
func (s *ProfileService) Seed(ctx context.Context, partners []string, initialPin string) error {
	if len(partners) != 2 {
		return fmt.Errorf("%w: need exactly two partners", common.ErrValidation)
	}
	if err := checkPinFormat(initialPin); err != nil {
		return err
	}
	hash, err := hashPin(initialPin)
	if err != nil {
		return common.ErrorInternal
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Profiles(tx)
		for i, name := range partners {
			p := &models.Profile{Name: name, Partner: partners[1-i], PinHash: hash}
			if _, err := repo.CreateIfMissing(ctx, p); err != nil {
				return fmt.Errorf("seed profile %s: %w", name, err)
			}
		}
		return nil
	})
}

// Login checks pin for profile name and issues an access token.
func (s *ProfileService) Login(ctx context.Context, name, pin string) (*Session, error) {
	if !s.limiter(name).Allow() {
		return nil, common.ErrTooManyAttempts
	}

	p, err := s.repomanager.Profiles(s.db).Get(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword(p.PinHash, []byte(pin)) != nil {
		return nil, common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(p.Name, p.Partner, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &Session{AccessToken: token, Name: p.Name, Partner: p.Partner}, nil
}

// ChangePin replaces the caller's PIN after checking the old one.
func (s *ProfileService) ChangePin(ctx context.Context, caller Caller, oldPin, newPin, confirmPin string) error {
	if newPin != confirmPin {
		return fmt.Errorf("%w: PINs do not match", common.ErrValidation)
	}
	if err := checkPinFormat(newPin); err != nil {
		return err
	}
	if !s.limiter(caller.Profile).Allow() {
		return common.ErrTooManyAttempts
	}

	repo := s.repomanager.Profiles(s.db)
	p, err := repo.Get(ctx, caller.Profile)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}
	if bcrypt.CompareHashAndPassword(p.PinHash, []byte(oldPin)) != nil {
		return common.ErrorUnauthorized
	}

	hash, err := hashPin(newPin)
	if err != nil {
		return common.ErrorInternal
	}
	if err := repo.UpdatePin(ctx, caller.Profile, hash); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}
	return nil
}
