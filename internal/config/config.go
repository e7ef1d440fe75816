package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SendTime is a wall-clock time of day.
type SendTime struct {
	Hour   int
	Minute int
}

func (t SendTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

var DefaultSendTime = SendTime{Hour: 9, Minute: 0}

type env struct {
	TelegramToken   string        `envconfig:"TELEGRAM_BOT_TOKEN"`
	LLMKey          string        `envconfig:"GROQ_API_KEY"`
	LLMBaseURL      string        `envconfig:"LLM_BASE_URL" default:"https://api.groq.com/openai/v1"`
	LLMModel        string        `envconfig:"LLM_MODEL" default:"llama-3.1-8b-instant"`
	DailySendTime   string        `envconfig:"DAILY_SEND_TIME" default:"09:00"`
	EnableThemes    string        `envconfig:"ENABLE_THEMES" default:"false"`
	ThemeAdminIDs   string        `envconfig:"THEME_ADMIN_IDS"`
	SubscribersFile string        `envconfig:"SUBSCRIBERS_FILE" default:"subscribers.json"`
	ThemesFile      string        `envconfig:"THEMES_FILE" default:"themes.json"`
	QuizFile        string        `envconfig:"QUIZ_FILE"`
	QuizTTL         time.Duration `envconfig:"QUIZ_TTL" default:"30m"`
	Timezone        string        `envconfig:"TIMEZONE"`
	LLMTimeout      time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`
	SendTimeout     time.Duration `envconfig:"SEND_TIMEOUT" default:"15s"`
	LLMConcurrency  int64         `envconfig:"LLM_CONCURRENCY" default:"4"`
	SendRate        float64       `envconfig:"SEND_RATE_PER_SECOND" default:"25"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
}

type Config struct {
	TelegramToken   string
	LLMKey          string
	LLMBaseURL      string
	LLMModel        string
	DailySendTime   SendTime
	ThemesEnabled   bool
	ThemeAdminIDs   []int64
	SubscribersFile string
	ThemesFile      string
	QuizFile        string
	QuizTTL         time.Duration
	Location        *time.Location
	LLMTimeout      time.Duration
	SendTimeout     time.Duration
	LLMConcurrency  int64
	SendRate        float64
	LogLevel        logrus.Level
}

// Load reads the optional dotenv file at path and then the process
// environment, which takes precedence. Missing credentials are an error.
func Load(path string, log logrus.FieldLogger) (Config, error) {
	if err := godotenv.Load(path); err != nil {
		log.WithError(err).Debug("could not read .env")
	}

	var e env
	if err := envconfig.Process("", &e); err != nil {
		return Config{}, errors.Wrap(err, "parse environment")
	}
	e.TelegramToken = strings.TrimSpace(e.TelegramToken)
	e.LLMKey = strings.TrimSpace(e.LLMKey)
	if e.TelegramToken == "" {
		return Config{}, errors.New("TELEGRAM_BOT_TOKEN is missing")
	}
	if e.LLMKey == "" || strings.HasPrefix(strings.ToUpper(e.LLMKey), "REPLACE_") {
		return Config{}, errors.New("GROQ_API_KEY is missing or is a placeholder")
	}

	loc := time.Local
	if tz := strings.TrimSpace(e.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return Config{}, errors.Wrapf(err, "TIMEZONE %q", tz)
		}
		loc = l
	}

	level, err := logrus.ParseLevel(e.LogLevel)
	if err != nil {
		log.WithField("value", e.LogLevel).Warn("invalid LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}

	sendTime, err := ParseSendTime(e.DailySendTime)
	if err != nil {
		log.WithError(err).WithField("value", e.DailySendTime).Warn("invalid DAILY_SEND_TIME, defaulting to 09:00")
		sendTime = DefaultSendTime
	}

	return Config{
		TelegramToken:   e.TelegramToken,
		LLMKey:          e.LLMKey,
		LLMBaseURL:      e.LLMBaseURL,
		LLMModel:        e.LLMModel,
		DailySendTime:   sendTime,
		ThemesEnabled:   ParseFlag(e.EnableThemes),
		ThemeAdminIDs:   parseIDs(e.ThemeAdminIDs, log),
		SubscribersFile: e.SubscribersFile,
		ThemesFile:      e.ThemesFile,
		QuizFile:        strings.TrimSpace(e.QuizFile),
		QuizTTL:         e.QuizTTL,
		Location:        loc,
		LLMTimeout:      e.LLMTimeout,
		SendTimeout:     e.SendTimeout,
		LLMConcurrency:  e.LLMConcurrency,
		SendRate:        e.SendRate,
		LogLevel:        level,
	}, nil
}

// ParseSendTime parses "HH:MM". Hour and minute wrap modulo 24 and 60 and a
// missing minute means :00.
func ParseSendTime(raw string) (SendTime, error) {
	hourPart, minutePart, hasMinute := strings.Cut(strings.TrimSpace(raw), ":")
	hour, err := strconv.Atoi(strings.TrimSpace(hourPart))
	if err != nil {
		return DefaultSendTime, errors.Wrap(err, "hour")
	}
	minute := 0
	if hasMinute {
		minute, err = strconv.Atoi(strings.TrimSpace(minutePart))
		if err != nil {
			return DefaultSendTime, errors.Wrap(err, "minute")
		}
	}
	return SendTime{Hour: mod(hour, 24), Minute: mod(minute, 60)}, nil
}

func mod(v, m int) int {
	return ((v % m) + m) % m
}

// ParseFlag accepts 1, true, yes and on in any case.
func ParseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func (c Config) IsThemeAdmin(chatID int64) bool {
	for _, id := range c.ThemeAdminIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

func parseIDs(raw string, log logrus.FieldLogger) []int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			log.WithError(err).Warnf("skipping admin id %q", p)
			continue
		}
		ids = append(ids, v)
	}
	return ids
}
