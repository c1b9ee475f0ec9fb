package config

import "time"

type Config struct {
	Web      Web
	DB       DB
	Redis    Redis
	Email    Email
	Cashfree Cashfree
	Cors     Cors
	Token    Token
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost"`
	Name       string `conf:"default:storefront"`
	DisableTLS bool   `conf:"default:true"`
}

type Redis struct {
	Addr     string `conf:"default:localhost:6379"`
	Password string `conf:"default:,mask"`
}

type Email struct {
	Host     string `conf:"default:localhost"`
	Port     string `conf:"default:25"`
	Address  string `conf:"default:no-reply@eleganza.test"`
	Password string `conf:"default:,mask"`
}

// Cashfree holds the payment provider settings. The webhook secret signs
// every inbound provider callback; the client call is bounded by Timeout.
type Cashfree struct {
	AppID         string        `conf:"default:test-app-id"`
	Secret        string        `conf:"default:test-secret,mask"`
	WebhookSecret string        `conf:"default:test-webhook-secret,mask"`
	URL           string        `conf:"default:https://sandbox.cashfree.com"`
	ReturnURL     string        `conf:"default:http://localhost:3000/checkout/return"`
	Timeout       time.Duration `conf:"default:15s"`
}

type Cors struct {
	Origin string `conf:"default:"`
}

type Token struct {
	// Lifetime of a password-recovery one-time code.
	Timeout time.Duration `conf:"default:15m"`
}
