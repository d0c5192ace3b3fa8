package service

import (
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/atelier/internal/db"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const minPasswordLength = 12

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPasswordTooWeak    = errors.New("password must be at least 12 characters and contain lowercase, uppercase and digits")
	ErrTooManyAttempts    = errors.New("too many login attempts, try again later")
)

// AuthService 校验后台账号。
type AuthService struct {
	db *gorm.DB
}

func NewAuthService(gdb *gorm.DB) *AuthService {
	return &AuthService{db: gdb}
}

// Authenticate 校验用户名与密码，不区分“用户不存在”和“密码错误”。
func (s *AuthService) Authenticate(username, password string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// ChangePassword 在校验旧密码后写入新的 bcrypt 哈希。
func (s *AuthService) ChangePassword(userID uint, current, next string) error {
	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	if !strongPassword(next) {
		return ErrPasswordTooWeak
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.Model(&user).Update("password", string(hashed)).Error
}

func strongPassword(password string) bool {
	if len([]rune(password)) < minPasswordLength {
		return false
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

// LoginLimiter 按客户端 IP 限制登录尝试次数。
type LoginLimiter struct {
	mu       sync.Mutex
	perMin   int
	limiters map[string]*limiterEntry
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterIdle = 10 * time.Minute

// NewLoginLimiter 允许每个 IP 每分钟 perMinute 次尝试，允许一次性用完。
func NewLoginLimiter(perMinute int) *LoginLimiter {
	if perMinute <= 0 {
		perMinute = 5
	}
	return &LoginLimiter{perMin: perMinute, limiters: make(map[string]*limiterEntry), now: time.Now}
}

// Allow 报告该 IP 是否还能再尝试一次。
func (l *LoginLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.now()
	for key, entry := range l.limiters {
		if current.Sub(entry.lastSeen) > limiterIdle {
			delete(l.limiters, key)
		}
	}

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.perMin)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = current
	return entry.limiter.AllowN(current, 1)
}
