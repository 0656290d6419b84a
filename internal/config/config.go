package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendSupabase = "supabase"

	SinkLog      = "log"
	SinkDiscord  = "discord"
	SinkTelegram = "telegram"
	SinkAMQP     = "amqp"
	SinkGoogle   = "google"
)

type Application struct {
	Host          string        `koanf:"host"`
	Port          int           `koanf:"port"`
	Google        Google        `koanf:"google"`
	Database      Database      `koanf:"db"`
	Store         Store         `koanf:"store"`
	LocalStore    LocalStore    `koanf:"localstore"`
	Notifications Notifications `koanf:"notifications"`
	OpenAI        OpenAI        `koanf:"openai"`
}

type Google struct {
	ClientId     string `koanf:"clientid"`
	ClientSecret string `koanf:"clientsecret"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

// Store selects where transactions and recurring rules live. Users and OAuth tokens always stay in Postgres.
type Store struct {
	Backend  string   `koanf:"backend"`
	Supabase Supabase `koanf:"supabase"`
}

type Supabase struct {
	Url string `koanf:"url"`
	Key string `koanf:"key"`
}

type LocalStore struct {
	Path string `koanf:"path"`
}

type Notifications struct {
	Sinks    []string `koanf:"sinks"`
	Discord  Discord  `koanf:"discord"`
	Telegram Telegram `koanf:"telegram"`
	AMQP     AMQP     `koanf:"amqp"`
}

type Discord struct {
	Token     string `koanf:"token"`
	ChannelId string `koanf:"channelid"`
}

type Telegram struct {
	Token string `koanf:"token"`
}

type AMQP struct {
	Url      string `koanf:"url"`
	Exchange string `koanf:"exchange"`
	Queue    string `koanf:"queue"`
}

type OpenAI struct {
	ApiKey string `koanf:"apikey"`
}

func defaults() Application {
	return Application{
		Host: "http://localhost:8181",
		Port: 8181,
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "spendlog",
			Pass:   "",
			Name:   "spendlog",
			Schema: "spendlog",
		},
		Store: Store{
			Backend: StoreBackendPostgres,
		},
		LocalStore: LocalStore{
			Path: "./data/slots.db",
		},
		Notifications: Notifications{
			Sinks: []string{SinkLog},
			AMQP: AMQP{
				Exchange: "spendlog.notifications",
				Queue:    "notifications",
			},
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "SPENDLOG_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "SPENDLOG_")), "_", ".")
			// comma separated lists, e.g. SPENDLOG_NOTIFICATIONS_SINKS=log,discord
			if strings.Contains(v, ",") {
				return k, strings.Split(v, ",")
			}
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}

// Validate reports every configuration problem at once.
func (a Application) Validate() error {
	var errs []error

	switch a.Store.Backend {
	case StoreBackendPostgres:
	case StoreBackendSupabase:
		if a.Store.Supabase.Url == "" || a.Store.Supabase.Key == "" {
			errs = append(errs, errors.New("store.supabase.url and store.supabase.key are required for the supabase backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", a.Store.Backend))
	}

	if a.LocalStore.Path == "" {
		errs = append(errs, errors.New("localstore.path is required"))
	}

	known := []string{SinkLog, SinkDiscord, SinkTelegram, SinkAMQP, SinkGoogle}
	for _, sink := range a.Notifications.Sinks {
		if !slices.Contains(known, sink) {
			errs = append(errs, fmt.Errorf("unknown notification sink %q", sink))
		}
	}
	if a.HasSink(SinkDiscord) && (a.Notifications.Discord.Token == "" || a.Notifications.Discord.ChannelId == "") {
		errs = append(errs, errors.New("notifications.discord.token and notifications.discord.channelid are required"))
	}
	if a.HasSink(SinkTelegram) && a.Notifications.Telegram.Token == "" {
		errs = append(errs, errors.New("notifications.telegram.token is required"))
	}
	if a.HasSink(SinkAMQP) && a.Notifications.AMQP.Url == "" {
		errs = append(errs, errors.New("notifications.amqp.url is required"))
	}
	if a.HasSink(SinkGoogle) && (a.Google.ClientId == "" || a.Google.ClientSecret == "") {
		errs = append(errs, errors.New("google.clientid and google.clientsecret are required for the google sink"))
	}

	return errors.Join(errs...)
}

func (a Application) HasSink(name string) bool {
	return slices.Contains(a.Notifications.Sinks, name)
}
