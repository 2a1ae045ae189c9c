package constants

import "time"

const (
	//
	// ComponentKey is the structured logging field that every service and client tags its log
	// events with (e.g. "≪rest-client≫").
	//
	ComponentKey = "component"

	RESTURL        = "https://api.pro.coinbase.com"
	SandboxRESTURL = "https://api-public.sandbox.pro.coinbase.com"
	FeedURL        = "wss://ws-feed.pro.coinbase.com"
	SandboxFeedURL = "wss://ws-feed-public.sandbox.pro.coinbase.com"

	UserAgent = "cbpro-go/1.0"

	// NOTE ~> Coinbase Pro allows three public requests per second per IP, with bursts of up to six.
	PublicRateLimit      = 3.0
	PublicRateLimitBurst = 6

	DefaultTimeout = 10 * time.Second
)
